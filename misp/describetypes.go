package misp

// TypeDescription carries the platform defaults for one attribute type, as
// served by the attributes/describeTypes endpoint.
type TypeDescription struct {
	DefaultCategory string
	ToIDS           bool
}

// Categories lists the attribute categories the platform accepts.
var Categories = []string{
	"Internal reference",
	"Targeting data",
	"Antivirus detection",
	"Payload delivery",
	"Artifacts dropped",
	"Payload installation",
	"Persistence mechanism",
	"Network activity",
	"Payload type",
	"Attribution",
	"External analysis",
	"Financial fraud",
	"Support Tool",
	"Social network",
	"Person",
	"Other",
}

// AttributeTypes maps every supported attribute type to its defaults.
var AttributeTypes = map[string]TypeDescription{
	"md5":             {"Payload delivery", true},
	"sha1":            {"Payload delivery", true},
	"sha256":          {"Payload delivery", true},
	"sha512":          {"Payload delivery", true},
	"ssdeep":          {"Payload delivery", true},
	"imphash":         {"Payload delivery", true},
	"authentihash":    {"Payload delivery", true},
	"pehash":          {"Payload delivery", true},
	"tlsh":            {"Payload delivery", true},
	"filename":        {"Payload delivery", true},
	"filename|md5":    {"Payload delivery", true},
	"filename|sha1":   {"Payload delivery", true},
	"filename|sha256": {"Payload delivery", true},
	"malware-sample":  {"Payload delivery", true},
	"malware-type":    {"Payload delivery", false},
	"attachment":      {"External analysis", false},

	"ip-src":              {"Network activity", true},
	"ip-dst":              {"Network activity", true},
	"ip-src|port":         {"Network activity", true},
	"ip-dst|port":         {"Network activity", true},
	"hostname":            {"Network activity", true},
	"domain":              {"Network activity", true},
	"domain|ip":           {"Network activity", true},
	"url":                 {"Network activity", true},
	"uri":                 {"Network activity", true},
	"snort":               {"Network activity", true},
	"pattern-in-traffic":  {"Network activity", true},
	"ja3-fingerprint-md5": {"Network activity", true},
	"user-agent":          {"Network activity", false},
	"http-method":         {"Network activity", false},
	"port":                {"Network activity", false},
	"mac-address":         {"Network activity", false},

	"email-src":        {"Payload delivery", true},
	"email-dst":        {"Network activity", true},
	"email-attachment": {"Payload delivery", true},
	"email-subject":    {"Payload delivery", false},
	"email-body":       {"Payload delivery", false},

	"mutex":             {"Artifacts dropped", true},
	"regkey":            {"Persistence mechanism", true},
	"regkey|value":      {"Persistence mechanism", true},
	"pattern-in-file":   {"Payload installation", true},
	"pattern-in-memory": {"Payload installation", true},
	"yara":              {"Payload installation", true},
	"sigma":             {"Payload installation", true},

	"vulnerability":          {"External analysis", false},
	"weakness":               {"External analysis", false},
	"link":                   {"External analysis", false},
	"comment":                {"Other", false},
	"text":                   {"Other", false},
	"other":                  {"Other", false},
	"threat-actor":           {"Attribution", false},
	"campaign-name":          {"Attribution", false},
	"whois-registrant-email": {"Attribution", false},
	"whois-registrar":        {"Attribution", false},
	"github-username":        {"Social network", false},
	"twitter-id":             {"Social network", false},
	"phone-number":           {"Person", false},

	"btc":            {"Financial fraud", true},
	"iban":           {"Financial fraud", true},
	"cc-number":      {"Financial fraud", true},
	"target-user":    {"Targeting data", false},
	"target-machine": {"Targeting data", false},
	"target-org":     {"Targeting data", false},
	"target-email":   {"Targeting data", false},
}

// IsKnownType reports whether the platform's catalogue lists the type.
func IsKnownType(attrType string) bool {
	_, ok := AttributeTypes[attrType]
	return ok
}

// DefaultCategory returns the default category for a type, or "Other" when
// the type is not in the catalogue.
func DefaultCategory(attrType string) string {
	if desc, ok := AttributeTypes[attrType]; ok {
		return desc.DefaultCategory
	}
	return "Other"
}
