package ui

// Field identifies a composer input
type Field int

const (
	FieldCompany Field = iota
	FieldAddress
	FieldPhone
	FieldEmail
	FieldWebsite
	FieldRecipientName
	FieldRecipientTitle
	FieldRecipientAddress
	FieldContent
	fieldCount
)

// FieldCount is the number of composer inputs
const FieldCount = int(fieldCount)

var fieldLabels = [...]string{
	FieldCompany:          "Company",
	FieldAddress:          "Address",
	FieldPhone:            "Phone",
	FieldEmail:            "Email",
	FieldWebsite:          "Website",
	FieldRecipientName:    "Recipient",
	FieldRecipientTitle:   "Recipient title",
	FieldRecipientAddress: "Recipient address",
	FieldContent:          "Letter",
}

// Label returns the display label of f
func (f Field) Label() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldLabels[f]
}

// Multiline reports whether address-like fields accept "\n" escapes
func (f Field) Multiline() bool {
	return f == FieldAddress || f == FieldRecipientAddress
}

// Help lists the composer key bindings
var Help = [][2]string{
	{"tab/shift+tab", "move"},
	{"ctrl+t", "template"},
	{"ctrl+p", "paper"},
	{"ctrl+f", "format"},
	{"ctrl+s", "render"},
	{"ctrl+c", "quit"},
}
