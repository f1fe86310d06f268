// Package export assembles release packages and configures build directories.
//
// An action names either an export target, which stages the build outputs,
// data, licenses, docs and README into <Product>_<version>_<suffix> and archives
// it, or a generate target, which runs cmake (and optionally make) in a build
// directory. Aliases expand to several targets of the same kind.
package export
