package ladder

// Outbound identity pool: rotating a browser user-agent per
// attempt reduces correlated blocking by the upstream sources.
// Rotation is a pure function of a counter so that tests can
// pin the sequence.
var identities = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
}

// Identity picks the outbound user-agent for the given attempt
// counter. Visible only to the network layer, never to callers
// of the acquisition pipeline.
func Identity(counter uint64) string {
	return identities[counter%uint64(len(identities))]
}

// IdentityPoolSize reports how many identities the pool rotates
// through before repeating.
func IdentityPoolSize() int {
	return len(identities)
}
