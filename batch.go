package resmgr

// loadSequential loads urls one at a time, in order. The next load starts
// only after the previous one resolved. Empty entries are skipped without
// counting toward limit. Once limit loads have succeeded the batch stops and
// resolves, leaving the rest unloaded. The first failure rejects the batch.
//
// Steps are chained through subscriptions, so a load that never settles
// leaves the batch pending without holding a goroutine.
func loadSequential(urls []string, limit int, load func(string) *Signal[Resource], log Logger) *Signal[Resource] {
	if len(urls) == 0 {
		return resolvedSignal(Resource{})
	}

	out := newSignal[Resource]()

	var step func(i, loaded int)
	step = func(i, loaded int) {
		for i < len(urls) && urls[i] == "" {
			i++
		}
		if i == len(urls) {
			out.resolve(Resource{})
			return
		}
		if loaded >= limit {
			log.Logf("Batch load limit reached (%d), skipping %d remaining.", limit, len(urls)-i)
			out.resolve(Resource{})
			return
		}

		load(urls[i]).Subscribe(func(_ Resource, err error) {
			if err != nil {
				out.reject(err)
				return
			}
			step(i+1, loaded+1)
		})
	}
	step(0, 0)

	return out
}
