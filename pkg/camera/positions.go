package camera

// Reader for auxiliary position records: one `key x y z` line per image,
// giving a sun or spacecraft position in planet-centered cartesian meters.
// These override whatever the camera sidecar carries, for when telemetry
// arrives separately from the camera model.

import(
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

// ErrRecords marks a malformed positions file. The whole run aborts on it:
// a half-read set of positions would silently poison the solve.
var ErrRecords = errors.New("malformed position records")

func ReadPositions(filename string) (map[string]emath.Vec3, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	records := map[string]emath.Vec3{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: %s: unreadable line %q", ErrRecords, filename, line)
		}

		key := fields[0]
		if _, dup := records[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate key %q", ErrRecords, filename, key)
		}

		var v emath.Vec3
		for i := 0; i < 3; i++ {
			val, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: unreadable line %q", ErrRecords, filename, line)
			}
			v[i] = val
		}
		records[key] = v
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return records, nil
}
