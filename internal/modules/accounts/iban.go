package accounts

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	ibanCountry  = "TR"
	ibanBankCode = "00001"
	ibanReserved = "0"
)

var ninetySeven = big.NewInt(97)

// BuildIBAN formats a Turkish IBAN for the given account sequence number:
// TR + 2 check digits + bank code (5) + reserved (1) + zero-padded account number (16)
func BuildIBAN(seq int64) string {
	bban := fmt.Sprintf("%s%s%016d", ibanBankCode, ibanReserved, seq)
	return fmt.Sprintf("%s%02d%s", ibanCountry, checkDigits(ibanCountry, bban), bban)
}

// ValidIBAN reports whether iban has a correct ISO 13616 mod-97 checksum
func ValidIBAN(iban string) bool {
	iban = NormalizeIBAN(iban)
	if len(iban) < 5 {
		return false
	}
	n, ok := numeric(iban[4:] + iban[:4])
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, ninetySeven).Int64() == 1
}

// NormalizeIBAN strips spaces and upper-cases
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

func checkDigits(country, bban string) int64 {
	n, _ := numeric(bban + country + "00")
	return 98 - new(big.Int).Mod(n, ninetySeven).Int64()
}

// numeric maps letters to 10..35 and leaves digits alone
func numeric(s string) (*big.Int, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			fmt.Fprintf(&b, "%d", r-'A'+10)
		default:
			return nil, false
		}
	}
	return new(big.Int).SetString(b.String(), 10)
}
