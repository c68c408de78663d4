package redis

import "strings"

const (
	// KeyPrefixContact is the prefix for contact documents.
	KeyPrefixContact = "rolodex:contact:"
	// KeyAllContacts is the SET of all contact ids.
	KeyAllContacts = "rolodex:contacts:all"
	// KeyCreatedIndex is the ZSET ordering ids by creation time.
	KeyCreatedIndex = "rolodex:contacts:created"
	// KeyEmailIndex is the HASH mapping lowercased email -> id.
	KeyEmailIndex = "rolodex:contacts:email"
)

// ContactKey returns the document key for a contact id.
func ContactKey(id string) string {
	return KeyPrefixContact + id
}

// EmailField normalizes an email into its index field.
func EmailField(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
