package history

import (
	"fmt"
	"strings"
)

// exportColumns is the fixed column order of the export artifact. Consumers
// parse by position; do not reorder.
var exportColumns = []string{"date", "download_mbps", "upload_mbps", "ping_ms", "isp"}

// Export renders all retained results as a comma-delimited table, one header
// row followed by one row per result, newest first. Fields are joined as-is;
// no quoting or escaping is applied.
func (s *Store) Export() string {
	var b strings.Builder
	b.WriteString(strings.Join(exportColumns, ","))
	b.WriteByte('\n')
	for _, r := range s.Results() {
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%s\n", r.Date, r.DownloadMbps, r.UploadMbps, r.PingMs, r.ISP)
	}
	return b.String()
}
