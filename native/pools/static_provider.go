package pools

// StaticProvider is a StakingProvider backed by a fixed validator set. It is
// used by local deployments and tests that run the ledger without a live
// consensus feed: every era earns points and no slashes are reported.
type StaticProvider struct {
	validators map[[20]byte]struct{}
}

// NewStaticProvider builds a provider accepting the given validators.
func NewStaticProvider(validators ...[20]byte) *StaticProvider {
	set := make(map[[20]byte]struct{}, len(validators))
	for _, validator := range validators {
		set[validator] = struct{}{}
	}
	return &StaticProvider{validators: set}
}

// IsValidator reports whether the address is in the fixed set.
func (p *StaticProvider) IsValidator(addr [20]byte) bool {
	_, ok := p.validators[addr]
	return ok
}

// ValidatorsEarnedPoints reports true whenever any target is a known
// validator.
func (p *StaticProvider) ValidatorsEarnedPoints(_ uint64, validators [][20]byte) (bool, error) {
	for _, validator := range validators {
		if p.IsValidator(validator) {
			return true, nil
		}
	}
	return false, nil
}

// UnappliedSlashes always returns an empty list.
func (p *StaticProvider) UnappliedSlashes(uint64) ([]SlashRecord, error) {
	return nil, nil
}
