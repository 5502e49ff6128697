/*
Package arch persists report tables as datasets and tracks their versions.

A dataset is a directory or zip file with one stream file per report,
holding the collection of period spans for that report, and a manifest file
with the latest version details per report.

Report versions are sequential integers that are derived from content hashes.
Whenever the hashed spans of a report differ from the last recorded manifest
entry the version is incremented. Programs that only need to detect change
can compare manifests without touching the stream data.
*/
package arch
