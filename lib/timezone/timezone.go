package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Minsk")
	if err != nil {
		panic(err)
	}
}

// the source forum timestamps donations in Minsk local time, so every
// date computation (cache ages, "latest date" headers, temp file ages)
// is pinned there no matter where the server runs
func Now() time.Time {
	return time.Now().In(Location)
}
