// Package report renders the result of an FBA run as an HTML page: an overview of the configuration, the
// reaction and exchange flux tables with their variability class, the essential genes, the uptake and
// secretion summary and the ATP summary. A non optimal run is shown with a visible warning.
package report
