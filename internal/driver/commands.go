package driver

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/shotrec/shotrec/internal/processor"
)

const resultOK = "OK"

type handler struct {
	minArgs int
	run     func(p *Processor, page *rod.Page, args []string) (string, error)
}

// handlers maps command names to their implementation. Locators accept
// "id=", "name=", "css=" and "xpath=" prefixes; anything else is CSS, except
// that a leading "//" means XPath.
var handlers = map[string]handler{
	"open":              {minArgs: 1, run: (*Processor).open},
	"click":             {minArgs: 1, run: click},
	"type":              {minArgs: 2, run: typeText},
	"waitForPageToLoad": {minArgs: 0, run: waitForPageToLoad},
	"getTitle":          {minArgs: 0, run: getTitle},
	"getLocation":       {minArgs: 0, run: getLocation},
	"getText":           {minArgs: 1, run: getText},
	"isElementPresent":  {minArgs: 1, run: isElementPresent},
	"getEval":           {minArgs: 1, run: getEval},

	processor.CaptureEntirePageScreenshot: {minArgs: 1, run: captureFullPage},
	processor.CaptureScreenshot:           {minArgs: 1, run: captureViewport},
}

// Commands returns the names of all commands the driver understands.
func Commands() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	return names
}

func (p *Processor) open(page *rod.Page, args []string) (string, error) {
	target, err := resolveURL(p.cfg.BaseURL, args[0])
	if err != nil {
		return "", err
	}
	if err := page.Navigate(target); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return resultOK, nil
}

func click(_ *Processor, page *rod.Page, args []string) (string, error) {
	el, err := locate(page, args[0])
	if err != nil {
		return "", err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", err
	}
	return resultOK, nil
}

// typeText replaces the value of the located input.
func typeText(_ *Processor, page *rod.Page, args []string) (string, error) {
	el, err := locate(page, args[0])
	if err != nil {
		return "", err
	}
	if err := el.SelectAllText(); err != nil {
		return "", err
	}
	if err := el.Input(args[1]); err != nil {
		return "", err
	}
	return resultOK, nil
}

func waitForPageToLoad(_ *Processor, page *rod.Page, _ []string) (string, error) {
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return resultOK, nil
}

func getTitle(_ *Processor, page *rod.Page, _ []string) (string, error) {
	info, err := page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func getLocation(_ *Processor, page *rod.Page, _ []string) (string, error) {
	info, err := page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func getText(_ *Processor, page *rod.Page, args []string) (string, error) {
	el, err := locate(page, args[0])
	if err != nil {
		return "", err
	}
	return el.Text()
}

func isElementPresent(_ *Processor, page *rod.Page, args []string) (string, error) {
	kind, sel := parseLocator(args[0])
	var (
		found bool
		err   error
	)
	if kind == locatorXPath {
		found, _, err = page.HasX(sel)
	} else {
		found, _, err = page.Has(sel)
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(found), nil
}

func getEval(_ *Processor, page *rod.Page, args []string) (string, error) {
	res, err := page.Eval(args[0])
	if err != nil {
		return "", err
	}
	if res == nil || res.Value.Nil() {
		return "", nil
	}
	return res.Value.String(), nil
}

func captureFullPage(_ *Processor, page *rod.Page, args []string) (string, error) {
	return capture(page, true, args[0])
}

func captureViewport(_ *Processor, page *rod.Page, args []string) (string, error) {
	return capture(page, false, args[0])
}

// capture writes a PNG screenshot of page to path. A background colour
// argument, if given, is ignored.
func capture(page *rod.Page, fullPage bool, path string) (string, error) {
	img, err := page.Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, img, 0600); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return resultOK, nil
}

type locatorKind int

const (
	locatorCSS locatorKind = iota
	locatorXPath
)

// parseLocator turns a locator into a CSS or XPath selector.
func parseLocator(locator string) (locatorKind, string) {
	prefix, value, found := strings.Cut(locator, "=")
	if found {
		switch prefix {
		case "id":
			return locatorCSS, fmt.Sprintf("[id=%q]", value)
		case "name":
			return locatorCSS, fmt.Sprintf("[name=%q]", value)
		case "css":
			return locatorCSS, value
		case "xpath":
			return locatorXPath, value
		}
	}
	if strings.HasPrefix(locator, "//") {
		return locatorXPath, locator
	}
	return locatorCSS, locator
}

func locate(page *rod.Page, locator string) (*rod.Element, error) {
	kind, sel := parseLocator(locator)
	if kind == locatorXPath {
		return page.ElementX(sel)
	}
	return page.Element(sel)
}

// resolveURL resolves target against base when target is relative.
func resolveURL(base, target string) (string, error) {
	if base == "" {
		return target, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	t, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}
	return b.ResolveReference(t).String(), nil
}
