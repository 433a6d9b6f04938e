package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	// BranchesPerPocket is the number of derivation branches reserved for every
	// HD pocket: an even one for receiving and an odd one for change.
	BranchesPerPocket = 2
)

// DerivationPath is the binary representation of a path relative to the root
// of the HD wallet. The first component is the pocket branch.
type DerivationPath []uint32

// NewPocketPath returns the path of the n-th address of the given pocket,
// either on its receiving or its change branch.
func NewPocketPath(pocketIndex int, change bool, n uint32) DerivationPath {
	branch := uint32(pocketIndex * BranchesPerPocket)
	if change {
		branch++
	}
	return DerivationPath{branch, n}
}

// ParseDerivationPath converts a derivation path string to the
// internal binary representation
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) == 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}

		var value uint32
		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("invalid elem '%s' in path", elem)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf("elem %v must be in range [0, %d]", bigval, max)
			}
			return nil, fmt.Errorf("elem %v must be in hardened range [0, %d]", bigval, max)
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// Branch returns the first component of the path, the one that identifies
// the pocket and whether the address is a change one.
func (path DerivationPath) Branch() (uint32, error) {
	if len(path) <= 0 {
		return 0, ErrNullDerivationPath
	}
	if path[0] >= hdkeychain.HardenedKeyStart {
		return 0, ErrHardenedBranch
	}
	return path[0], nil
}

// PocketIndex returns the index of the HD pocket owning the path.
func (path DerivationPath) PocketIndex() (int, error) {
	branch, err := path.Branch()
	if err != nil {
		return -1, err
	}
	return int(branch / BranchesPerPocket), nil
}

// IsChange returns whether the path lies on the change branch of its pocket.
func (path DerivationPath) IsChange() bool {
	branch, err := path.Branch()
	if err != nil {
		return false
	}
	return branch%BranchesPerPocket == 1
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("m")
	for _, component := range path {
		hardened := component >= hdkeychain.HardenedKeyStart
		if hardened {
			component -= hdkeychain.HardenedKeyStart
		}
		fmt.Fprintf(&sb, "/%d", component)
		if hardened {
			sb.WriteString("'")
		}
	}
	return sb.String()
}
