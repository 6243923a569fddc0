package report

import (
	"context"
	"fmt"
	"time"
)

// Period 时段
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodNight     Period = "night"
)

// Periods 早/午/晚，按顺序
var Periods = []Period{PeriodMorning, PeriodAfternoon, PeriodNight}

// Condition 天气类别
type Condition string

const (
	ConditionNone     Condition = ""
	ConditionClear    Condition = "clear"
	ConditionOvercast Condition = "overcast-usable"
	ConditionRain     Condition = "rain"
)

// RainThresholdMM 降水超过该值即判为雨天
const RainThresholdMM = 0.5

// ForecastDays 预报覆盖天数
const ForecastDays = 5

// 天气数据来源
const (
	SourceSite    = "site"
	SourceDefault = "default"
)

// WeatherSample 一条原始天气读数，风速单位 km/h
type WeatherSample struct {
	At            time.Time `json:"at"`
	Temperature   float64   `json:"temperature"`
	TempMin       float64   `json:"temp_min"`
	TempMax       float64   `json:"temp_max"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDegree    float64   `json:"wind_degree"`
	Precipitation float64   `json:"precipitation"`
	Code          int       `json:"code"`
	Description   string    `json:"description,omitempty"`
}

// WeatherPeriodSummary 时段汇总。无数据时数值字段为 nil、类别为空。
type WeatherPeriodSummary struct {
	Period        Period    `json:"period"`
	Temperature   *float64  `json:"temperature"`
	TempMin       *float64  `json:"temp_min"`
	TempMax       *float64  `json:"temp_max"`
	Humidity      *float64  `json:"humidity"`
	WindSpeed     *float64  `json:"wind_speed"`
	WindDirection string    `json:"wind_direction,omitempty"`
	Precipitation *float64  `json:"precipitation"`
	Code          int       `json:"code,omitempty"`
	Description   string    `json:"description,omitempty"`
	Condition     Condition `json:"condition"`
	Samples       int       `json:"samples"`
	Approximated  bool      `json:"approximated"`
}

// WeatherReport 某日期的三个时段汇总
type WeatherReport struct {
	Date         time.Time              `json:"date"`
	Periods      []WeatherPeriodSummary `json:"periods"`
	Approximated bool                   `json:"approximated"`
	Source       string                 `json:"source,omitempty"`
	FetchedAt    time.Time              `json:"fetched_at"`
}

// Period 按时段取汇总
func (w *WeatherReport) Period(p Period) (WeatherPeriodSummary, bool) {
	for _, s := range w.Periods {
		if s.Period == p {
			return s, true
		}
	}
	return WeatherPeriodSummary{}, false
}

// WeatherProvider 天气数据提供方
type WeatherProvider interface {
	Forecast(ctx context.Context, lat, lng float64) ([]WeatherSample, error)
	Current(ctx context.Context, lat, lng float64) (WeatherSample, error)
}

// ClassifyCondition 降水超过阈值或天气码在 [200,700) 为雨；801-804 为多云可施工；其余为晴
func ClassifyCondition(code int, precipitation float64) Condition {
	switch {
	case precipitation > RainThresholdMM:
		return ConditionRain
	case code >= 200 && code < 700:
		return ConditionRain
	case code >= 801 && code <= 804:
		return ConditionOvercast
	default:
		return ConditionClear
	}
}

// PeriodOf 按本地小时划分时段；0-5 点不属于任何时段
func PeriodOf(hour int) (Period, bool) {
	switch {
	case hour >= 6 && hour < 12:
		return PeriodMorning, true
	case hour >= 12 && hour < 18:
		return PeriodAfternoon, true
	case hour >= 18 && hour < 24:
		return PeriodNight, true
	}
	return "", false
}

// AggregateWeather 把预报读数汇总为早/午/晚三个时段。
// 时段无数据时：早取最早一条，午取中间一条，晚取最后一条，优先取当天的读数。
func AggregateWeather(date time.Time, samples []WeatherSample, loc *time.Location) WeatherReport {
	if loc == nil {
		loc = time.UTC
	}
	day := calendarDay(date, loc)

	var daySamples []WeatherSample
	buckets := map[Period][]WeatherSample{}
	for _, s := range samples {
		local := s.At.In(loc)
		if !DateOnly(local).Equal(day) {
			continue
		}
		daySamples = append(daySamples, s)
		if p, ok := PeriodOf(local.Hour()); ok {
			buckets[p] = append(buckets[p], s)
		}
	}

	fallback := daySamples
	if len(fallback) == 0 {
		fallback = samples
	}
	if len(fallback) > 0 {
		if len(buckets[PeriodMorning]) == 0 {
			buckets[PeriodMorning] = []WeatherSample{fallback[0]}
		}
		if len(buckets[PeriodAfternoon]) == 0 && len(fallback) > 1 {
			buckets[PeriodAfternoon] = []WeatherSample{fallback[len(fallback)/2]}
		}
		if len(buckets[PeriodNight]) == 0 {
			buckets[PeriodNight] = []WeatherSample{fallback[len(fallback)-1]}
		}
	}

	out := WeatherReport{Date: day, Periods: make([]WeatherPeriodSummary, 0, len(Periods))}
	for _, p := range Periods {
		out.Periods = append(out.Periods, summarize(p, buckets[p]))
	}
	return out
}

func summarize(p Period, items []WeatherSample) WeatherPeriodSummary {
	sum := WeatherPeriodSummary{Period: p}
	if len(items) == 0 {
		return sum
	}

	var temp, hum, wind, rain float64
	lo, hi := items[0].Temperature, items[0].Temperature
	for _, it := range items {
		temp += it.Temperature
		hum += it.Humidity
		wind += it.WindSpeed
		rain += it.Precipitation
		if it.Temperature < lo {
			lo = it.Temperature
		}
		if it.Temperature > hi {
			hi = it.Temperature
		}
	}
	n := float64(len(items))
	median := items[len(items)/2]

	sum.Temperature = ptr(temp / n)
	sum.TempMin = ptr(lo)
	sum.TempMax = ptr(hi)
	sum.Humidity = ptr(hum / n)
	sum.WindSpeed = ptr(wind / n)
	sum.WindDirection = WindDirection(median.WindDegree)
	sum.Precipitation = ptr(rain)
	sum.Code = median.Code
	sum.Description = median.Description
	sum.Condition = ClassifyCondition(median.Code, rain)
	sum.Samples = len(items)
	return sum
}

// ApproximateWeather 历史日期只有一条实况读数，三个时段全部使用该读数并标记为近似
func ApproximateWeather(date time.Time, current WeatherSample) WeatherReport {
	out := WeatherReport{Date: DateOnly(date), Approximated: true}
	for _, p := range Periods {
		out.Periods = append(out.Periods, WeatherPeriodSummary{
			Period:        p,
			Temperature:   ptr(current.Temperature),
			TempMin:       ptr(current.TempMin),
			TempMax:       ptr(current.TempMax),
			Humidity:      ptr(current.Humidity),
			WindSpeed:     ptr(current.WindSpeed),
			WindDirection: WindDirection(current.WindDegree),
			Precipitation: ptr(current.Precipitation),
			Code:          current.Code,
			Description:   current.Description,
			Condition:     ClassifyCondition(current.Code, current.Precipitation),
			Samples:       1,
			Approximated:  true,
		})
	}
	return out
}

// FetchWeather 按日期选择数据源：过去日期用实况近似，今天及未来 5 天内用预报
func FetchWeather(ctx context.Context, provider WeatherProvider, lat, lng float64, date, now time.Time, loc *time.Location) (WeatherReport, error) {
	if loc == nil {
		loc = time.UTC
	}
	day := calendarDay(date, loc)
	today := DateOnly(now.In(loc))

	if day.Before(today) {
		current, err := provider.Current(ctx, lat, lng)
		if err != nil {
			return WeatherReport{}, fmt.Errorf("%w: 实况天气: %v", ErrTransientFetch, err)
		}
		w := ApproximateWeather(day, current)
		w.FetchedAt = now
		return w, nil
	}
	if day.After(today.AddDate(0, 0, ForecastDays)) {
		return WeatherReport{}, ErrDateOutOfRange
	}

	samples, err := provider.Forecast(ctx, lat, lng)
	if err != nil {
		return WeatherReport{}, fmt.Errorf("%w: 天气预报: %v", ErrTransientFetch, err)
	}
	w := AggregateWeather(day, samples, loc)
	w.FetchedAt = now
	return w, nil
}

var compass = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirection 风向角度转八方位
func WindDirection(deg float64) string {
	for deg < 0 {
		deg += 360
	}
	i := int((deg+22.5)/45) % len(compass)
	return compass[i]
}

// calendarDay 取日期的年月日，在站点时区的零点
func calendarDay(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func ptr(v float64) *float64 {
	return &v
}
