// Package sink appends extracted odds to their destination.
//
// Every sink receives a Batch: the records from one run, a shared capture
// time, a run id, and the destination range. Sinks only ever append.
// Nothing is deduplicated and nothing already written is touched.
//
// Available sinks:
//   - SheetsSink: Google Sheets values.append (USER_ENTERED)
//   - PostgresSink: one odds_rows row per record (bun over lib/pq)
//   - RedisSink: one stream entry per record on <prefix>.<range>
//   - FileSink: CSV files under a data directory
//   - DryRunSink: prints the rows that would be appended
package sink
