package contracts

import (
	"fmt"

	"ariya-backend/config"
)

// Deployment is the published package and its shared objects, parsed once.
type Deployment struct {
	Package              Address
	EventRegistry        Address
	RegistrationRegistry Address
	AttendanceRegistry   Address
	AirdropRegistry      Address
	NFTRegistry          Address
	RatingRegistry       Address
	ProfileRegistry      Address
	CommunityRegistry    Address
	SubscriptionRegistry Address
	SubscriptionConfig   Address
	PlatformTreasury     Address
	Clock                Address
}

// NewDeployment parses the configured ids. Empty optional ids stay zero.
func NewDeployment(ids config.ObjectIDs) (Deployment, error) {
	d := Deployment{Clock: MustParseAddress(config.ClockID)}
	fields := []struct {
		name  string
		value string
		dst   *Address
	}{
		{"package", ids.PackageID, &d.Package},
		{"event registry", ids.EventRegistryID, &d.EventRegistry},
		{"registration registry", ids.RegistrationRegistryID, &d.RegistrationRegistry},
		{"attendance registry", ids.AttendanceRegistryID, &d.AttendanceRegistry},
		{"airdrop registry", ids.AirdropRegistryID, &d.AirdropRegistry},
		{"nft registry", ids.NFTRegistryID, &d.NFTRegistry},
		{"rating registry", ids.RatingRegistryID, &d.RatingRegistry},
		{"profile registry", ids.ProfileRegistryID, &d.ProfileRegistry},
		{"community registry", ids.CommunityRegistryID, &d.CommunityRegistry},
		{"subscription registry", ids.SubscriptionRegistryID, &d.SubscriptionRegistry},
		{"subscription config", ids.SubscriptionConfigID, &d.SubscriptionConfig},
		{"platform treasury", ids.PlatformTreasuryID, &d.PlatformTreasury},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		a, err := ParseAddress(f.value)
		if err != nil {
			return Deployment{}, fmt.Errorf("failed to parse %s id: %w", f.name, err)
		}
		*f.dst = a
	}
	if d.Package.IsZero() {
		return Deployment{}, fmt.Errorf("%w: package id is required", ErrInvalidAddress)
	}
	return d, nil
}

// StructType returns the fully qualified type of a struct in the package.
func (d Deployment) StructType(module, name string) string {
	return fmt.Sprintf("%s::%s::%s", d.Package, module, name)
}

// SDK groups the per-module clients over one node connection. Client may be
// nil when only builders are used.
type SDK struct {
	Events        *EventManagement
	Identity      *IdentityAccess
	Attendance    *Attendance
	Airdrops      *Airdrops
	Subscriptions *Subscriptions
	Communities   *Communities
}

func NewSDK(client *Client, d Deployment) *SDK {
	return &SDK{
		Events:        &EventManagement{client: client, d: d},
		Identity:      &IdentityAccess{client: client, d: d},
		Attendance:    &Attendance{client: client, d: d},
		Airdrops:      &Airdrops{client: client, d: d},
		Subscriptions: &Subscriptions{client: client, d: d},
		Communities:   &Communities{client: client, d: d},
	}
}
