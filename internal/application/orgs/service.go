package orgs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authsvc "carbon-ledger/internal/application/auth"
	"carbon-ledger/internal/ledger"

	"github.com/rs/zerolog/log"
)

// RegisterInput is the public registration request.
type RegisterInput struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Secret   string `json:"secret"`
}

// Profile is an organization as shown to clients.
type Profile struct {
	Identity       string `json:"identity"`
	Name           string `json:"name"`
	Registered     bool   `json:"registered"`
	TotalEmissions int64  `json:"total_emissions"`
	TotalOffsets   int64  `json:"total_offsets"`
	NetBalance     int64  `json:"net_balance"`
	CreditBalance  int64  `json:"credit_balance"`
}

// Service couples the ledger registry with login credentials.
type Service struct {
	Ledger      *ledger.Ledger
	Credentials authsvc.CredentialStore
}

// Register creates the credential and the ledger profile. If the ledger
// rejects the profile the credential is removed again.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	identity := ledger.Identity(in.Identity)
	if s.Ledger.IsRegistered(identity) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAlreadyRegistered, in.Identity)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ledger.ErrInvalidName
	}

	if s.Credentials != nil {
		if err := s.Credentials.Create(ctx, in.Identity, in.Secret); err != nil {
			if errors.Is(err, authsvc.ErrCredentialExists) {
				return nil, fmt.Errorf("%w: %s", ledger.ErrAlreadyRegistered, in.Identity)
			}
			return nil, err
		}
	}

	if err := s.Ledger.Register(ctx, identity, in.Name); err != nil {
		if s.Credentials != nil {
			if derr := s.Credentials.Delete(ctx, in.Identity); derr != nil {
				log.Error().Err(derr).Str("identity", in.Identity).Msg("could not remove credential after failed registration")
			}
		}
		return nil, err
	}
	p := s.Profile(identity)
	return &p, nil
}

// Profile never fails: unknown identities come back unregistered with zero totals.
func (s *Service) Profile(identity ledger.Identity) Profile {
	o := s.Ledger.Organization(identity)
	return Profile{
		Identity:       string(identity),
		Name:           o.Name,
		Registered:     o.Registered,
		TotalEmissions: o.TotalEmissions,
		TotalOffsets:   o.TotalOffsets,
		NetBalance:     o.NetBalance(),
		CreditBalance:  s.Ledger.BalanceOf(identity),
	}
}

// ReportEmissions records amount tons against identity and returns the updated profile.
func (s *Service) ReportEmissions(ctx context.Context, identity ledger.Identity, amount int64) (*Profile, error) {
	if err := s.Ledger.ReportEmissions(ctx, identity, amount); err != nil {
		return nil, err
	}
	p := s.Profile(identity)
	return &p, nil
}
