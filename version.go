package runqy

// Version is the library release identifier, reported to the server in the
// User-Agent header of every request.
const Version = "0.2.0"

func userAgent() string {
	return "runqy-go/" + Version
}
