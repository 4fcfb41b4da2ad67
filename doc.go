/*
Package gcstransfer is a small command-line utility for a Google Cloud Storage bucket.

gcs-transfer provides:
- Bucket listing with per-object metadata and a count/size summary
- Whole-file upload and download through the storage API
- Download of any object (or URL) through its public HTTP address, with live progress
- Byte-count verification after every download
- INI + environment configuration, optional Secret Manager secrets
- Prometheus textfile metrics

Quick Start:

	go install github.com/SaiNageswarS/gcs-transfer/cmd/gcs-transfer@latest
	gcs-transfer --bucket my-bucket --credentials service-account.json
	gcs-transfer upload ./data.bin archive/data-v2.bin
	gcs-transfer download archive/data-v2.bin out/data.bin
	gcs-transfer download-public archive/data-v2.bin

Package Import:

	import "github.com/SaiNageswarS/gcs-transfer/cloud"

License: Apache-2.0
*/
package gcstransfer
