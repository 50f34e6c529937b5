package orcid

import "strings"

// RecidFromURL returns the last path segment of url, ignoring one trailing
// slash: ".../record/912978/" gives "912978". A url without '/' has no recid.
func RecidFromURL(url string) (string, bool) {
	url = strings.TrimSuffix(url, "/")

	position := strings.LastIndex(url, "/")
	if position == -1 {
		return "", false
	}
	recid := url[position+1:]
	if recid == "" {
		return "", false
	}
	return recid, true
}
