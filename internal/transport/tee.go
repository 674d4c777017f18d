package transport

import "ganeo/internal/gtag"

type tee struct {
	primary gtag.Transport
	others  []gtag.Transport
}

// Tee forwards every call to primary and to each of others. Only primary
// receives the continuation of a get call; the others see the call without
// it, so a lookup is answered at most once.
func Tee(primary gtag.Transport, others ...gtag.Transport) gtag.Transport {
	return &tee{primary: primary, others: others}
}

func (t *tee) Gtag(command gtag.Command, args ...any) {
	t.primary.Gtag(command, args...)

	rest := args
	if command == gtag.CommandGet {
		if _, ok := gtag.LookupOf(args); ok {
			rest = args[:len(args)-1]
		}
	}
	for _, o := range t.others {
		o.Gtag(command, rest...)
	}
}
