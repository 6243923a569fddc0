package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// 默认参数
const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultLang    = "pt_br"
	forecastCount  = 40 // 5 天 × 每 3 小时
)

var (
	ErrMissingAPIKey = errors.New("未配置天气 API Key")
	ErrUpstream      = errors.New("天气服务返回错误")
)

// Options 客户端配置
type Options struct {
	APIKey        string
	BaseURL       string
	Lang          string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Sample 一条读数（公制单位，风速已换算为 km/h）
type Sample struct {
	Time          time.Time
	Temperature   float64
	TempMin       float64
	TempMax       float64
	Humidity      float64
	WindSpeed     float64
	WindDegree    float64
	Precipitation float64
	Code          int
	Description   string
}

// Client OpenWeatherMap 客户端，出站请求限速
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient 创建天气客户端
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Lang == "" {
		opts.Lang = DefaultLang
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// ── 响应结构 ──

type mainBlock struct {
	Temp     float64 `json:"temp"`
	TempMin  float64 `json:"temp_min"`
	TempMax  float64 `json:"temp_max"`
	Humidity float64 `json:"humidity"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type conditionBlock struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type rainBlock struct {
	OneHour   float64 `json:"1h"`
	ThreeHour float64 `json:"3h"`
}

type item struct {
	Dt      int64            `json:"dt"`
	Main    mainBlock        `json:"main"`
	Wind    windBlock        `json:"wind"`
	Weather []conditionBlock `json:"weather"`
	Rain    *rainBlock       `json:"rain"`
}

type forecastResponse struct {
	List []item `json:"list"`
}

func (it item) sample() Sample {
	s := Sample{
		Time:        time.Unix(it.Dt, 0).UTC(),
		Temperature: it.Main.Temp,
		TempMin:     it.Main.TempMin,
		TempMax:     it.Main.TempMax,
		Humidity:    it.Main.Humidity,
		WindSpeed:   it.Wind.Speed * 3.6,
		WindDegree:  it.Wind.Deg,
	}
	if len(it.Weather) > 0 {
		s.Code = it.Weather[0].ID
		s.Description = it.Weather[0].Description
	}
	if it.Rain != nil {
		s.Precipitation = it.Rain.OneHour
		if s.Precipitation == 0 {
			s.Precipitation = it.Rain.ThreeHour
		}
	}
	return s
}

// Forecast 5 天 / 3 小时预报
func (c *Client) Forecast(ctx context.Context, lat, lng float64) ([]Sample, error) {
	var resp forecastResponse
	if err := c.get(ctx, "/forecast", lat, lng, map[string]string{"cnt": strconv.Itoa(forecastCount)}, &resp); err != nil {
		return nil, err
	}
	out := make([]Sample, 0, len(resp.List))
	for _, it := range resp.List {
		out = append(out, it.sample())
	}
	return out, nil
}

// Current 当前实况
func (c *Client) Current(ctx context.Context, lat, lng float64) (Sample, error) {
	var resp item
	if err := c.get(ctx, "/weather", lat, lng, nil, &resp); err != nil {
		return Sample{}, err
	}
	s := resp.sample()
	if resp.Dt == 0 {
		s.Time = time.Now().UTC()
	}
	return s, nil
}

func (c *Client) get(ctx context.Context, path string, lat, lng float64, extra map[string]string, out interface{}) error {
	if c.opts.APIKey == "" {
		return ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 7, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 7, 64))
	q.Set("appid", c.opts.APIKey)
	q.Set("units", "metric")
	q.Set("lang", c.opts.Lang)
	for k, v := range extra {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("构造天气请求失败: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("请求天气服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d %s", ErrUpstream, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析天气响应失败: %w", err)
	}
	return nil
}
