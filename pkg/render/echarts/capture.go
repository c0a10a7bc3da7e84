package echarts

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultCaptureTimeout bounds one headless-browser screenshot.
const DefaultCaptureTimeout = 15 * time.Second

// Capturer turns a rendered HTML document into a raster image. The chart
// backend needs one because ECharts draws on a browser canvas; without a
// browser there is nothing to rasterize.
type Capturer interface {
	CapturePNG(ctx context.Context, html []byte, width, height int) ([]byte, error)
}

// ChromeCapturer screenshots charts in a headless Chrome tab. Each capture
// runs in its own browser context and is torn down when it returns.
type ChromeCapturer struct {
	// Timeout bounds one capture. Zero means DefaultCaptureTimeout.
	Timeout time.Duration
}

var _ Capturer = (*ChromeCapturer)(nil)

// CapturePNG loads the document in a fresh tab sized to width x height,
// waits for the chart canvas to appear, and screenshots the viewport.
func (c *ChromeCapturer) CapturePNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCaptureTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, cancelChrome := chromedp.NewContext(ctx)
	defer cancelChrome()

	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)

	var png []byte
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(url),
		chromedp.WaitVisible("canvas", chromedp.ByQuery),
		// One settle frame so the force simulation reaches a readable state.
		chromedp.Sleep(250*time.Millisecond),
		chromedp.CaptureScreenshot(&png),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png, nil
}
