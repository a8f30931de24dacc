package commands

import "fmt"

const usage = `cipherdrop: end-to-end encrypted media transfer agent

usage:
  cipherdrop run <config>                         serve the agent API, consume notices, sweep expired transfers
  cipherdrop send <config> <recipient> <file> [conversation]
  cipherdrop receive <config> <record-id>         download, verify and decrypt a transfer into the inbox
  cipherdrop keygen <config> [identity]           create a key pair and print the public key
  cipherdrop contact <config> <name> <key-file>   store a contact's public key
  cipherdrop sweep <config>                       remove expired transfers once
  cipherdrop version
  cipherdrop help
`

func HandleHelp(_ []string) {
	fmt.Print(usage) //nolint
}
