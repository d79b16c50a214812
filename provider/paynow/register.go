package paynow

import "github.com/mstgnz/paynow/provider"

// Register Paynow with the processor registry
func init() {
	provider.Register(Slug, NewProvider)
}
