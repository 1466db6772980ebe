package runner

import (
	"fmt"
	"net/http"
)

// Classify compares a raw result against the case's expectations. It is
// pure: the same inputs always produce the same outcome.
//
// The checks run in a fixed order, so a connection failure masks any status
// problem and the 2xx-3xx range check runs before the exact status compare.
func Classify(tc TestCase, raw RawResult) Outcome {
	if raw.Skipped {
		return Skipped{Reason: SkipReason}
	}

	url := raw.URL
	if url == "" {
		url = RequestURL(tc, raw.Target)
	}

	if raw.Err != nil {
		return ConnectionFailed{
			Cause:  fmt.Sprintf("%t %v", raw.Remote, raw.Err),
			URL:    url,
			Remote: raw.Remote,
		}
	}

	if raw.Response != nil && !statusOK(raw.Response.StatusCode) {
		if raw.Response.StatusCode == tc.ExpectedCode && raw.Response.StatusCode == http.StatusNotFound {
			return Passed{}
		}
		return TransportFailed{
			Hostname:       tc.Hostname,
			URL:            url,
			Expected:       tc.ExpectedCode,
			Response:       raw.Response,
			RequestHeaders: raw.RequestHeaders,
		}
	}

	if raw.Response == nil {
		return TransportFailed{
			Hostname:       tc.Hostname,
			URL:            url,
			Expected:       tc.ExpectedCode,
			RequestHeaders: raw.RequestHeaders,
			Message:        noResponseMessage(tc, url),
		}
	}

	if raw.Response.StatusCode != tc.ExpectedCode {
		return StatusMismatch{
			Expected: tc.ExpectedCode,
			Actual:   raw.Response.StatusCode,
			URL:      url,
		}
	}

	if tc.ExpectedLocation != nil && *tc.ExpectedLocation != "" {
		actual := raw.Response.Location()
		if actual != *tc.ExpectedLocation {
			return LocationMismatch{
				Expected: *tc.ExpectedLocation,
				Actual:   actual,
				URL:      url,
			}
		}
	}

	return Passed{}
}

// statusOK reports whether code is in the 2xx-3xx range.
func statusOK(code int) bool {
	return code >= 200 && code < 400
}

func noResponseMessage(tc TestCase, url string) string {
	loc := ""
	if tc.ExpectedLocation != nil {
		loc = *tc.ExpectedLocation
	}
	return fmt.Sprintf(
		"Couldn't initiate a request. | Source: %s | Headers: %s | Expected Return Code: %d | Expected Redirect Location: %s|",
		url, formatHeaderMap(tc.Headers), tc.ExpectedCode, loc,
	)
}
