package funnel

import "net/url"

// CheckoutURL builds the external checkout redirect with tracking
// parameters attached. If the base URL does not parse, it returns the
// base unchanged: a parameter-light redirect beats no redirect at all.
func CheckoutURL(base string, params map[string]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	q := u.Query()
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
