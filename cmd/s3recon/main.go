// s3recon reconciles object-storage keys against Redshift load commits.
package main

import "github.com/redshift-tools/s3recon/internal/cmd"

func main() {
	cmd.Execute()
}
