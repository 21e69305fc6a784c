// Package extract pulls odds records out of horse-racing result and odds pages.
//
// A Scanner walks every row of a parsed document and hands each one to a
// Classifier, which decides whether the row describes a horse. Two
// classifiers are provided: PatternClassifier inspects cell contents by shape
// and needs no markup hooks, SelectorClassifier trusts known CSS hooks.
// ChainClassifier tries several in a fixed order.
//
// Row-level failures are isolated: a row that cannot be classified is logged
// with its HTML fragment and skipped, and the scan carries on.
package extract
