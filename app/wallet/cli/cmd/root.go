// Package cmd contains the wallet app.
package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	url         string
)

const (
	keyExtension = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Path to the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the oracle.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Ask, answer and settle questions on the oracle",
}

// Execute runs the command selected on the command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// =============================================================================

func getPrivateKeyPath() string {
	return keyPath(accountName)
}

func keyPath(name string) string {
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(accountPath, name)
}

func loadPrivateKey() (*ecdsa.PrivateKey, error) {
	return crypto.LoadECDSA(getPrivateKeyPath())
}

// resolveAccount accepts a hex address or the name of a key in the account
// path.
func resolveAccount(s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}

	privateKey, err := crypto.LoadECDSA(keyPath(s))
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving account %q: %w", s, err)
	}

	return crypto.PubkeyToAddress(privateKey.PublicKey), nil
}

// parseAnswer accepts a 32 byte hex value or an unsigned number.
func parseAnswer(s string) (common.Hash, error) {
	if strings.HasPrefix(s, "0x") {
		if len(s) != 2+2*common.HashLength {
			return common.Hash{}, fmt.Errorf("answer %q is not 32 bytes", s)
		}
		return common.HexToHash(s), nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return common.Hash{}, fmt.Errorf("answer %q: %w", s, err)
	}

	return history.AnswerFromUint64(v), nil
}

// =============================================================================

// post signs the value with the wallet's key and sends it to the oracle.
func post(path string, value any) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	sd, err := signature.NewSigned(value, privateKey)
	if err != nil {
		return err
	}

	return postRaw(path, sd)
}

// postRaw sends the value to the oracle as is.
func postRaw(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s%s", url, path), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return show(resp)
}

// get reads from the oracle and decodes the response when a value is
// provided, otherwise the response is printed.
func get(path string, value any) error {
	resp, err := http.Get(fmt.Sprintf("%s%s", url, path))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if value == nil {
		return show(resp)
	}

	if resp.StatusCode != http.StatusOK {
		return show(resp)
	}

	return json.NewDecoder(resp.Body).Decode(value)
}

func show(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		out.Reset()
		out.Write(body)
	}
	fmt.Println(out.String())

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("oracle responded %s", resp.Status)
	}

	return nil
}
