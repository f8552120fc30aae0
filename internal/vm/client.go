// Package vm publishes aggregated bucket tables to Victoria Metrics.
package vm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pxndameong/era5-month-excel/internal/pipeline"
	"github.com/pxndameong/era5-month-excel/internal/sink"
	"github.com/pxndameong/era5-month-excel/internal/table"
)

// Client is a Victoria Metrics client capable of inserting bucket tables via
// the InfluxDB line protocol or the CSV import API. Every row becomes one
// sample per value column, stamped with the bucket start.
type Client struct {
	logger        *slog.Logger
	httpCli       *http.Client
	insertURL     *url.URL
	metricPrefix  string
	maxConns      int
	rowsPerInsert int
	encoding      encoding
}

const metricPrefixRE = "^[a-zA-Z0-9]+$"

var metricPrefixMatcher = regexp.MustCompile(metricPrefixRE)

// NewClient creates a new VM client. rowsPerInsert bounds the body of one
// request; up to maxConns requests run at once.
func NewClient(logger *slog.Logger, insertURL string, maxConns int, metricPrefix string, rowsPerInsert int) (*Client, error) {
	u, err := url.Parse(insertURL)
	if err != nil {
		return nil, err
	}
	if !metricPrefixMatcher.MatchString(metricPrefix) {
		return nil, fmt.Errorf("metric prefix %q does not match %q regular expression", metricPrefix, metricPrefixRE)
	}
	enc, ok := encodings[u.Path]
	if !ok {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}
	if maxConns < 1 {
		maxConns = 1
	}
	if rowsPerInsert < 1 {
		rowsPerInsert = 10000
	}

	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		insertURL:     u,
		metricPrefix:  metricPrefix,
		maxConns:      maxConns,
		rowsPerInsert: rowsPerInsert,
		encoding:      enc,
	}, nil
}

// WriteArtifact inserts every row of the artifact. A failed batch fails the
// whole artifact.
func (c *Client) WriteArtifact(ctx context.Context, a pipeline.Artifact) error {
	target := c.endpoint(a.Table)
	ts := a.Bucket.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConns)
	for lo := 0; lo < len(a.Table.Rows); lo += c.rowsPerInsert {
		hi := min(lo+c.rowsPerInsert, len(a.Table.Rows))
		body := c.encode(a.Table, a.Table.Rows[lo:hi], ts)
		g.Go(func() error {
			return c.post(gctx, target, body)
		})
	}
	if err := g.Wait(); err != nil {
		return &sink.WriteError{Dest: c.insertURL.Redacted() + " (" + a.Name + ")", Err: err}
	}
	c.logger.Debug("Inserted artifact", "artifact", a.Name, "rows", a.Table.Len())
	return nil
}

func (c *Client) endpoint(t *table.Table) string {
	u := *c.insertURL
	q := u.Query()
	for name, value := range c.encoding.params(t, c.metricPrefix) {
		q.Set(name, value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) encode(t *table.Table, rows []table.Row, ts time.Time) string {
	var sb strings.Builder
	for _, r := range rows {
		if c.encoding.row(&sb, t, r, ts, c.metricPrefix) {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (c *Client) post(ctx context.Context, target, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	res, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("could not post data: %w", err)
	}
	defer res.Body.Close()
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		c.logger.Error("Failed to drain response body", "err", err)
	}
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return nil
}

type encoding struct {
	params func(t *table.Table, metricPrefix string) map[string]string
	// row appends one row and reports whether anything was written.
	row func(sb *strings.Builder, t *table.Table, r table.Row, ts time.Time, metricPrefix string) bool
}

var influx = encoding{params: influxDBAPIParams, row: rowToInfluxDB}

var encodings = map[string]encoding{
	"/influx/write":        influx,
	"/influx/api/v2/write": influx,
	"/write":               influx,
	"/api/v2/write":        influx,
	"/api/v1/import/csv":   {params: csvAPIParams, row: rowToCSV},
}

func influxDBAPIParams(*table.Table, string) map[string]string {
	return map[string]string{"precision": "ms"}
}

// csvAPIParams describes the columns written by rowToCSV.
func csvAPIParams(t *table.Table, metricPrefix string) map[string]string {
	var sb strings.Builder
	sb.WriteString("1:time:unix_ms,2:label:lat,3:label:lon")
	for i, col := range t.Columns() {
		fmt.Fprintf(&sb, ",%d:metric:%s_%s", i+4, metricPrefix, col)
	}
	return map[string]string{"format": sb.String()}
}

var fieldKeyEscaper = strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)

// rowToInfluxDB converts a row into InfluxDB line protocol. Missing readings
// are left out; a row with no readings is skipped.
func rowToInfluxDB(sb *strings.Builder, t *table.Table, r table.Row, ts time.Time, metricPrefix string) bool {
	fields := 0
	for i, col := range t.Columns() {
		v := r.Values[i]
		if table.IsMissing(v) {
			continue
		}
		if fields == 0 {
			fmt.Fprintf(sb, "%s,lat=%.2f,lon=%.2f ", metricPrefix, r.Latitude, r.Longitude)
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(fieldKeyEscaper.Replace(col))
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		fields++
	}
	if fields == 0 {
		return false
	}
	fmt.Fprintf(sb, " %d", ts.UnixMilli())
	return true
}

// rowToCSV converts a row into a CSV record. Missing readings are empty
// fields, which the import skips.
func rowToCSV(sb *strings.Builder, t *table.Table, r table.Row, ts time.Time, _ string) bool {
	fmt.Fprintf(sb, "%d,%.2f,%.2f", ts.UnixMilli(), r.Latitude, r.Longitude)
	for _, v := range r.Values {
		sb.WriteByte(',')
		if !table.IsMissing(v) {
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return true
}
