// This program is a wallet for asking, answering and settling questions on
// the oracle.
package main

import "github.com/alex-kampa/realitycheck/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
