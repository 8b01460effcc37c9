//go:build windows

package vault

import "github.com/99designs/keyring"

func platformBackends() []keyring.BackendType {
	return []keyring.BackendType{keyring.WinCredBackend}
}
