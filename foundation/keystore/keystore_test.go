package keystore_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/keystore"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_KeyStore(t *testing.T) {
	t.Log("Given the need to manage a local wallet key.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the key file does not exist yet.", testID)
		{
			ks := keystore.New(t.TempDir(), "miner1.ecdsa")

			if _, err := ks.Address(); !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("\t%s\tTest %d:\tShould get a file not found error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a file not found error.", success, testID)

			if err := ks.Generate(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to generate the key: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to generate the key.", success, testID)

			addr, err := ks.Address()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to read the address.", success, testID)

			if len(addr) != 42 || addr[:2] != "0x" {
				t.Fatalf("\t%s\tTest %d:\tShould get a hex address, got %s.", failed, testID, addr)
			}
			t.Logf("\t%s\tTest %d:\tShould get a hex address.", success, testID)

			again, err := ks.Address()
			if err != nil || again != addr {
				t.Fatalf("\t%s\tTest %d:\tShould read back the same address.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould read back the same address.", success, testID)

			if err := ks.Generate(); !errors.Is(err, fs.ErrExist) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to overwrite the key, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to overwrite the key.", success, testID)

			if ks.Name() != "miner1" {
				t.Fatalf("\t%s\tTest %d:\tShould drop the extension from the name, got %s.", failed, testID, ks.Name())
			}
			t.Logf("\t%s\tTest %d:\tShould drop the extension from the name.", success, testID)
		}
	}
}
