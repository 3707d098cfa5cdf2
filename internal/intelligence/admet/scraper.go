package admet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Defaults for the SwissADME scraper.
const (
	DefaultURL     = "http://www.swissadme.ch/index.php"
	DefaultTimeout = 90 * time.Second

	maxReportBytes = 8 << 20
)

// Page selectors on the SwissADME form and result page.
const (
	clearButtonXPath = `//*[@id="myForm"]/div/input[2]`
	smilesInputSel   = `#smiles`
	submitButtonSel  = `#submitButton`
	csvLinkXPath     = `//*[@id="content"]/div[7]/a[1]`
	moleculeImgXPath = `//*[@id="mol-cell-1"]/img`

	imageWait = 5 * time.Second
)

// Fetcher produces an ADMET report for a list of molecules.
type Fetcher interface {
	Fetch(ctx context.Context, smiles []string) (*Report, error)
}

// Config configures the Scraper.
type Config struct {
	URL         string
	ChromePath  string
	ShowBrowser bool
	Timeout     time.Duration
}

// pageResult is what the browser session yields: where to download the CSV
// and the optional molecule image.
type pageResult struct {
	csvURL   string
	imageSrc string
}

// browseFunc drives the form for the given molecules.
type browseFunc func(ctx context.Context, smiles []string) (*pageResult, error)

// Scraper submits molecules to SwissADME through a headless Chrome and
// downloads the resulting CSV.
type Scraper struct {
	cfg    Config
	http   *http.Client
	logger logging.Logger
	browse browseFunc
}

// NewScraper builds a Scraper. httpClient may be nil.
func NewScraper(cfg Config, httpClient *http.Client, logger logging.Logger) *Scraper {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Scraper{cfg: cfg, http: httpClient, logger: logger.Named("admet_scraper")}
	s.browse = s.runBrowser
	return s
}

// Fetch runs one SwissADME job for smiles and returns the parsed report.
func (s *Scraper) Fetch(ctx context.Context, smiles []string) (*Report, error) {
	if len(smiles) == 0 {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "no SMILES to submit")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	page, err := s.browse(ctx, smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScrapeFailed, "SwissADME form submission failed")
	}

	csvURL, err := resolveURL(s.cfg.URL, page.csvURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScrapeFailed, "invalid CSV link").WithDetail(page.csvURL)
	}
	raw, err := s.download(ctx, csvURL)
	if err != nil {
		return nil, err
	}

	report, err := ParseCSV(raw)
	if err != nil {
		return nil, err
	}
	report.SMILES = append([]string(nil), smiles...)
	if strings.Contains(page.imageSrc, "base64") {
		report.ImageDataURI = page.imageSrc
	}

	s.logger.Info("ADMET report fetched",
		logging.Int("molecules", len(smiles)),
		logging.Int("rows", len(report.Rows)),
		logging.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (s *Scraper) runBrowser(ctx context.Context, smiles []string) (*pageResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !s.cfg.ShowBrowser),
		chromedp.WindowSize(1920, 1080),
	)
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var (
		href   string
		hasRef bool
	)
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(s.cfg.URL),
		chromedp.WaitVisible(clearButtonXPath, chromedp.BySearch),
		chromedp.Click(clearButtonXPath, chromedp.BySearch),
		chromedp.WaitVisible(smilesInputSel, chromedp.ByQuery),
		chromedp.SendKeys(smilesInputSel, strings.Join(smiles, "\n"), chromedp.ByQuery),
		chromedp.Click(submitButtonSel, chromedp.ByQuery),
		chromedp.WaitVisible(csvLinkXPath, chromedp.BySearch),
		chromedp.AttributeValue(csvLinkXPath, "href", &href, &hasRef, chromedp.BySearch),
	)
	if err != nil {
		return nil, err
	}
	if !hasRef || href == "" {
		return nil, fmt.Errorf("CSV link has no href")
	}

	result := &pageResult{csvURL: href}

	imgCtx, cancelImg := context.WithTimeout(browserCtx, imageWait)
	defer cancelImg()
	var (
		src    string
		hasSrc bool
	)
	if err := chromedp.Run(imgCtx, chromedp.AttributeValue(moleculeImgXPath, "src", &src, &hasSrc, chromedp.BySearch)); err != nil {
		s.logger.Warn("molecule image not found", logging.Err(err))
	} else if hasSrc {
		result.imageSrc = src
	}
	return result, nil
}

func (s *Scraper) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScrapeFailed, "build CSV request")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScrapeFailed, "download ADMET CSV")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeScrapeFailed, "download ADMET CSV: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScrapeFailed, "read ADMET CSV")
	}
	return data, nil
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

//Personal.AI order the ending
