package classify

// Attempt reports one classification attempt to an observer.
type Attempt struct {
	Number int
	Raw    string
	Err    error
}

// retry invokes call up to attempts times, validating each raw response.
// observe is called after every attempt with the outcome; it has no
// influence on control flow. The first valid payload wins; the error from
// the last attempt is returned when all fail.
func retry(attempts int, call func() (string, error), validate func(string) (payload, error), observe func(Attempt)) (payload, error) {
	var lastErr error
	for n := 1; n <= attempts; n++ {
		raw, err := call()
		if err != nil {
			lastErr = err
			observe(Attempt{Number: n, Err: err})
			continue
		}

		p, err := validate(raw)
		if err != nil {
			lastErr = err
			observe(Attempt{Number: n, Raw: raw, Err: err})
			continue
		}

		observe(Attempt{Number: n, Raw: raw})
		return p, nil
	}
	return payload{}, lastErr
}
