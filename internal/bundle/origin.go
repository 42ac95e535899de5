// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// origin.go defines the trust tier of a bundle. Trust-sensitive pages set
// an origin ceiling; only bundles whose origin is within the ceiling may
// load there. Numerically smaller values are more trusted.
package bundle

// Origin is the trust tier assigned to a bundle at registration time.
type Origin int

const (
	// OriginCoreSitewide is site software in a sitewide context, the most
	// trusted tier and the default for every bundle.
	OriginCoreSitewide Origin = 1

	// OriginCoreIndividual is site software in a per-user context.
	OriginCoreIndividual Origin = 2

	// OriginUserSitewide is user-supplied content applied sitewide.
	OriginUserSitewide Origin = 3

	// OriginUserIndividual is user-supplied content scoped to one user,
	// the least trusted assignable tier.
	OriginUserIndividual Origin = 4

	// OriginAll is a sentinel ceiling that admits every origin. It is
	// never assigned to a bundle.
	OriginAll Origin = 10
)

// String returns the origin name for logging.
func (o Origin) String() string {
	switch o {
	case OriginCoreSitewide:
		return "core-sitewide"
	case OriginCoreIndividual:
		return "core-individual"
	case OriginUserSitewide:
		return "user-sitewide"
	case OriginUserIndividual:
		return "user-individual"
	case OriginAll:
		return "all"
	}
	return "unknown"
}

// AllowedWithin reports whether a bundle of this origin may load in a
// context whose access ceiling is the given origin.
func (o Origin) AllowedWithin(ceiling Origin) bool {
	return o <= ceiling
}
