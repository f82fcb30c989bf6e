package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var urlExpr = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
var rangeExpr = regexp.MustCompile(`(.+?)!.*`)
var bareNameExpr = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// authorize constructs an HTTP client authenticated with service account JWT
// credentials - from the GOOGLE_CREDS_JSON environment variable if set,
// otherwise from the credentials file.
func authorize(credentials string, credentialsJSON string) (*http.Client, error) {
	b := []byte(strings.TrimSpace(credentialsJSON))

	if len(b) == 0 {
		bytes, err := os.ReadFile(credentials)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file (%v)", err)
		}

		b = bytes
	}

	config, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsScope, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account credentials (%v)", err)
	}

	return config.Client(context.Background()), nil
}

// connect authorizes against the Google APIs, resolves the target spreadsheet
// and returns a Sheets service along with the spreadsheet metadata.
func (c *command) connect(ctx context.Context) (*sheets.Service, *sheets.Spreadsheet, error) {
	client, err := authorize(c.credentials, c.credentialsJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("authentication/authorization error (%v)", err)
	}

	google, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	id, err := c.lookup(ctx, client)
	if err != nil {
		return nil, nil, err
	}

	if c.debug {
		debugf("Spreadsheet - ID:%s  worksheet:%s", id, c.worksheet)
	}

	spreadsheet, err := getSpreadsheet(google, id)
	if err != nil {
		return nil, nil, err
	}

	return google, spreadsheet, nil
}

// lookup resolves the spreadsheet ID from (in order of precedence) the
// spreadsheet URL, the spreadsheet ID or a spreadsheet name lookup against the
// Drive API (the reason for the drive.readonly scope).
func (c *command) lookup(ctx context.Context, client *http.Client) (string, error) {
	if url := strings.TrimSpace(c.url); url != "" {
		match := urlExpr.FindStringSubmatch(url)
		if len(match) < 2 {
			return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
		}

		return match[1], nil
	}

	if id := strings.TrimSpace(c.id); id != "" {
		return id, nil
	}

	name := strings.TrimSpace(c.name)
	if name == "" {
		return "", fmt.Errorf("missing spreadsheet - specify --url, --id or --name")
	}

	gdrive, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("unable to create new Drive client (%v)", err)
	}

	q := fmt.Sprintf(`mimeType='application/vnd.google-apps.spreadsheet' and name = '%s' and trashed = false`, strings.ReplaceAll(name, `'`, `\'`))

	list, err := gdrive.Files.List().Q(q).Fields("files(id,name)").PageSize(2).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to find spreadsheet '%s' (%v)", name, err)
	}

	if len(list.Files) == 0 {
		return "", fmt.Errorf("no spreadsheet named '%s'", name)
	}

	if len(list.Files) > 1 {
		warnf("Multiple spreadsheets named '%s' - using the first match", name)
	}

	return list.Files[0].Id, nil
}

func getSpreadsheet(google *sheets.Service, id string) (*sheets.Spreadsheet, error) {
	spreadsheet, err := google.Spreadsheets.Get(id).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet (%v)", err)
	}

	return spreadsheet, nil
}

func getWorksheet(spreadsheet *sheets.Spreadsheet, title string) (*sheets.Sheet, error) {
	for _, sheet := range spreadsheet.Sheets {
		if strings.EqualFold(strings.TrimSpace(sheet.Properties.Title), strings.TrimSpace(title)) {
			return sheet, nil
		}
	}

	return nil, fmt.Errorf("no worksheet '%s' in spreadsheet '%s'", title, spreadsheet.Properties.Title)
}

func getSheet(spreadsheet *sheets.Spreadsheet, area string) (*sheets.Sheet, error) {
	match := rangeExpr.FindStringSubmatch(strings.TrimSpace(area))
	if len(match) < 2 {
		return nil, fmt.Errorf("invalid range '%s' - expected something like 'Log!A1:G'", area)
	}

	return getWorksheet(spreadsheet, unquote(match[1]))
}

func clear(google *sheets.Service, spreadsheet *sheets.Spreadsheet, ranges []string, ctx context.Context) error {
	rq := sheets.BatchClearValuesRequest{
		Ranges: ranges,
	}

	if _, err := google.Spreadsheets.Values.BatchClear(spreadsheet.SpreadsheetId, &rq).Context(ctx).Do(); err != nil {
		return err
	}

	return nil
}

// firstEmptyRow returns the 1-based row immediately after the last value in a
// retrieved column, clamped to 'start'.
func firstEmptyRow(data *sheets.ValueRange, start int) int {
	if next := len(data.Values) + 1; next > start {
		return next
	}

	return start
}

// rangeRef formats an A1 range reference for a worksheet, quoting the
// worksheet title when it is anything other than a bare name.
func rangeRef(worksheet string, cells string) string {
	if bareNameExpr.MatchString(worksheet) {
		return worksheet + "!" + cells
	}

	return "'" + strings.ReplaceAll(worksheet, "'", "''") + "'!" + cells
}

func unquote(name string) string {
	if strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") && len(name) >= 2 {
		return strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}

	return name
}
