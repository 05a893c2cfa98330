package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quernlabs/quern/internal/jsonb"
)

// decodeSQLiteValue renders one cell from the database/sql scan result.
// BLOB columns get the hex treatment; text values that look like JSON are
// pretty-printed; everything else is formatted by its dynamic type.
func decodeSQLiteValue(typeName string, v any) string {
	if v == nil {
		return "NULL"
	}

	switch val := v.(type) {
	case []byte:
		if strings.EqualFold(typeName, "BLOB") {
			return hexTruncated(val)
		}
		return decodeSQLiteText(string(val))
	case string:
		return decodeSQLiteText(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return formatNaiveDateTime(val)
	default:
		return fmt.Sprint(val)
	}
}

func decodeSQLiteText(s string) string {
	if jsonb.LooksLikeJSON(s) {
		return jsonb.PrettyString(s)
	}
	return s
}
