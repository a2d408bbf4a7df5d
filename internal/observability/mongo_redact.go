package observability

import "regexp"

var mongoURICredentials = regexp.MustCompile(`://([^:/@]+):([^@/]+)@`)

// RedactMongoURI masks the credentials embedded in a mongodb:// or
// mongodb+srv:// connection string before it reaches a log line: the
// password is fully replaced, and the username is truncated to its first
// two characters so an operator can still recognize which account a log
// came from without the full identifier leaking into log storage.
func RedactMongoURI(uri string) string {
	return mongoURICredentials.ReplaceAllStringFunc(uri, func(match string) string {
		groups := mongoURICredentials.FindStringSubmatch(match)
		user := groups[1]
		if len(user) > 2 {
			user = user[:2]
		}
		return "://" + user + "***:***@"
	})
}
