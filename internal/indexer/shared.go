package indexer

// sharedStrings have fixed ids in every organization and are never stored.
// Stored ids start at 10000 so they cannot collide.
var sharedStrings = map[string]int64{
	// release health metric names
	"sentry.sessions.session":          1,
	"sentry.sessions.user":             2,
	"sentry.sessions.session.error":    3,
	"sentry.sessions.session.duration": 4,

	// release health tags
	"environment":    5,
	"release":        6,
	"session.status": 7,
	"abnormal":       8,
	"crashed":        9,
	"errored":        10,
	"exited":         11,
	"healthy":        12,
	"init":           13,
	"production":     14,

	// performance tags
	"transaction":        15,
	"transaction.status": 16,
	"transaction.op":     17,

	// performance metric names
	"d:transactions/duration@millisecond":         18,
	"s:transactions/user@none":                    19,
	"d:transactions/measurements.lcp@millisecond": 20,
}

var reverseSharedStrings = func() map[int64]string {
	m := make(map[int64]string, len(sharedStrings))
	for s, id := range sharedStrings {
		m[id] = s
	}
	return m
}()

func sharedID(s string) (int64, bool) {
	id, ok := sharedStrings[s]
	return id, ok
}

func sharedString(id int64) (string, bool) {
	s, ok := reverseSharedStrings[id]
	return s, ok
}
