package record

// ValueKind classifies the shape of a field type's value elements.
type ValueKind int

const (
	// KindText fields hold primitive string elements.
	KindText ValueKind = iota
	// KindObject fields hold dict-shaped elements (phone, name, address...).
	KindObject
	// KindReference fields hold UIDs of other records and are inflated by
	// the resolver.
	KindReference
)

// Descriptor describes one field type from the closed registry.
type Descriptor struct {
	Type string
	Kind ValueKind

	// InflateWith lists, in order, the field types spliced in from the
	// referenced record when a KindReference field is inflated. A listed
	// type that is itself a reference is inflated recursively.
	InflateWith []string
}

// fieldTypes is the closed registry of known field types. It is an explicit
// static table; record data with types outside it still round-trips, the
// registry only drives value-kind decisions and reference inflation.
var fieldTypes = map[string]Descriptor{
	"login":            {Type: "login", Kind: KindText},
	"password":         {Type: "password", Kind: KindText},
	"url":              {Type: "url", Kind: KindText},
	"text":             {Type: "text", Kind: KindText},
	"multiline":        {Type: "multiline", Kind: KindText},
	"email":            {Type: "email", Kind: KindText},
	"secret":           {Type: "secret", Kind: KindText},
	"oneTimeCode":      {Type: "oneTimeCode", Kind: KindText},
	"pinCode":          {Type: "pinCode", Kind: KindText},
	"accountNumber":    {Type: "accountNumber", Kind: KindText},
	"licenseNumber":    {Type: "licenseNumber", Kind: KindText},
	"date":             {Type: "date", Kind: KindText},
	"birthDate":        {Type: "birthDate", Kind: KindText},
	"expirationDate":   {Type: "expirationDate", Kind: KindText},
	"fileRef":          {Type: "fileRef", Kind: KindText},
	"name":             {Type: "name", Kind: KindObject},
	"phone":            {Type: "phone", Kind: KindObject},
	"host":             {Type: "host", Kind: KindObject},
	"address":          {Type: "address", Kind: KindObject},
	"paymentCard":      {Type: "paymentCard", Kind: KindObject},
	"bankAccount":      {Type: "bankAccount", Kind: KindObject},
	"keyPair":          {Type: "keyPair", Kind: KindObject},
	"securityQuestion": {Type: "securityQuestion", Kind: KindObject},
	"addressRef":       {Type: "addressRef", Kind: KindReference, InflateWith: []string{"address"}},
	"cardRef":          {Type: "cardRef", Kind: KindReference, InflateWith: []string{"paymentCard", "text", "pinCode", "addressRef"}},
}

// DescriptorFor returns the registry entry for a field type.
func DescriptorFor(fieldType string) (Descriptor, bool) {
	d, ok := fieldTypes[fieldType]
	return d, ok
}

// IsReference reports whether the field type holds record references that
// the resolver should inflate.
func IsReference(fieldType string) bool {
	d, ok := fieldTypes[fieldType]
	return ok && d.Kind == KindReference
}
