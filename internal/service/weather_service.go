package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rdo-fidel/backend/config"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/pkg/weather"
)

// weatherClient pkg/weather.Client 的读取接口
type weatherClient interface {
	Forecast(ctx context.Context, lat, lng float64) ([]weather.Sample, error)
	Current(ctx context.Context, lat, lng float64) (weather.Sample, error)
}

// weatherProvider 把 OpenWeatherMap 读数转换为报告领域的 WeatherSample
type weatherProvider struct {
	client weatherClient
}

// NewWeatherProvider 包装天气客户端为 report.WeatherProvider
func NewWeatherProvider(client weatherClient) report.WeatherProvider {
	return &weatherProvider{client: client}
}

func (p *weatherProvider) Forecast(ctx context.Context, lat, lng float64) ([]report.WeatherSample, error) {
	samples, err := p.client.Forecast(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	out := make([]report.WeatherSample, 0, len(samples))
	for _, s := range samples {
		out = append(out, toWeatherSample(s))
	}
	return out, nil
}

func (p *weatherProvider) Current(ctx context.Context, lat, lng float64) (report.WeatherSample, error) {
	s, err := p.client.Current(ctx, lat, lng)
	if err != nil {
		return report.WeatherSample{}, err
	}
	return toWeatherSample(s), nil
}

func toWeatherSample(s weather.Sample) report.WeatherSample {
	return report.WeatherSample{
		At:            s.Time,
		Temperature:   s.Temperature,
		TempMin:       s.TempMin,
		TempMax:       s.TempMax,
		Humidity:      s.Humidity,
		WindSpeed:     s.WindSpeed,
		WindDegree:    s.WindDegree,
		Precipitation: s.Precipitation,
		Code:          s.Code,
		Description:   s.Description,
	}
}

// ════════════════════════════════════════════════════════════
// WeatherService 按会话的工地坐标与日期拉取天气汇总
// ════════════════════════════════════════════════════════════

// WeatherService 天气业务接口
type WeatherService interface {
	ForSession(ctx context.Context, s *report.Session, now time.Time) (report.WeatherReport, error)
}

type weatherService struct {
	provider report.WeatherProvider
	cfg      config.WeatherConfig
	loc      *time.Location
	logger   *zap.Logger
}

// NewWeatherService 创建 WeatherService 实例
func NewWeatherService(cfg config.WeatherConfig, provider report.WeatherProvider, logger *zap.Logger) WeatherService {
	return &weatherService{
		provider: provider,
		cfg:      cfg,
		loc:      cfg.Location(),
		logger:   logger,
	}
}

// ForSession 工地有坐标时用工地坐标，否则用默认坐标，并记录数据来源
func (s *weatherService) ForSession(ctx context.Context, sess *report.Session, now time.Time) (report.WeatherReport, error) {
	if sess.Date == nil {
		return report.WeatherReport{}, report.ErrDateRequired
	}

	lat, lng, source := s.cfg.DefaultLat, s.cfg.DefaultLng, report.SourceDefault
	if sess.Latitude != nil && sess.Longitude != nil {
		lat, lng, source = *sess.Latitude, *sess.Longitude, report.SourceSite
	}

	w, err := report.FetchWeather(ctx, s.provider, lat, lng, *sess.Date, now, s.loc)
	if err != nil {
		s.logger.Warn("获取天气失败",
			zap.String("session_id", sess.ID),
			zap.String("source", source),
			zap.Error(err),
		)
		return report.WeatherReport{}, err
	}
	w.Source = source
	return w, nil
}
