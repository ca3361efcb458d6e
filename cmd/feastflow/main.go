// Command feastflow is the storefront client for the FeastFlow food
// ordering API.
package main

import "github.com/feastflow/storefront/cmd/feastflow/cmd"

func main() {
	cmd.Execute()
}
