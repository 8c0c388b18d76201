package entities

// AccessLevel is the ordered capability tier granted on a resource.
type AccessLevel string

const (
	AccessLevelNone      AccessLevel = "NONE"
	AccessLevelReadOnly  AccessLevel = "READ_ONLY"
	AccessLevelReadWrite AccessLevel = "READ_WRITE"
	AccessLevelAdmin     AccessLevel = "ADMIN"
	AccessLevelOwner     AccessLevel = "OWNER"
)

// SubscriptionTier is the billing classification consulted during resolution.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "FREE"
	TierPro        SubscriptionTier = "PRO"
	TierEnterprise SubscriptionTier = "ENTERPRISE"
	TierCustom     SubscriptionTier = "CUSTOM"
)

// PermissionSource tags the provenance of a grant and doubles as the
// priority discriminator during access resolution.
type PermissionSource string

const (
	SourceSubscription  PermissionSource = "SUBSCRIPTION"
	SourceOrganization  PermissionSource = "ORGANIZATION"
	SourceAdminGrant    PermissionSource = "ADMIN_GRANT"
	SourceSystemDefault PermissionSource = "SYSTEM_DEFAULT"
)
