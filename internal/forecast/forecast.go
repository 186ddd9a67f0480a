package forecast

import (
	"fmt"
	"math"
	"strconv"
)

// Level is the expected nectar flow
type Level string

const (
	LevelLow    Level = "нисък"
	LevelMedium Level = "умерен"
	LevelHigh   Level = "висок"
)

// Forecast is the derived forecast for a region
type Forecast struct {
	Region       string  `json:"region"`
	TemperatureC *int    `json:"temperatureC"`
	Wind         string  `json:"wind"`
	Humidity     *int    `json:"humidity"`
	NectarLevel  Level   `json:"nectarLevel"`
	NextRain     *string `json:"nextRain"`
	Notes        *string `json:"notes"`
}

var windSectors = []string{
	"северен",
	"североизточен",
	"източен",
	"югоизточен",
	"южен",
	"югозападен",
	"западен",
	"северозападен",
}

// roundHalfUp rounds .5 towards positive infinity
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func roundPtr(v *float64) *int {
	if v == nil {
		return nil
	}
	r := roundHalfUp(*v)
	return &r
}

// WindDescription renders speed (m/s) and direction (degrees) in Bulgarian
func WindDescription(speed, direction *float64) string {
	if speed == nil {
		return "няма информация"
	}

	var speedLabel string
	switch s := *speed; {
	case s < 2:
		speedLabel = "тих"
	case s < 6:
		speedLabel = "лек"
	case s < 10:
		speedLabel = "умерен"
	default:
		speedLabel = "силен"
	}
	formatted := strconv.FormatFloat(*speed, 'f', 1, 64)

	if direction == nil {
		return fmt.Sprintf("%s вятър (%s м/с)", speedLabel, formatted)
	}
	index := roundHalfUp(math.Mod(*direction, 360)/45) % len(windSectors)
	if index < 0 {
		index += len(windSectors)
	}
	return fmt.Sprintf("%s %s вятър (%s м/с)", speedLabel, windSectors[index], formatted)
}

// NectarLevel estimates the nectar flow from temperature, humidity and precipitation
func NectarLevel(temp, humidity, precipitation *float64) Level {
	if temp == nil {
		return LevelMedium
	}
	if precipitation != nil && *precipitation > 8 {
		return LevelHigh
	}
	t := *temp
	if t >= 20 && t <= 30 && (humidity == nil || (*humidity >= 40 && *humidity <= 80)) {
		return LevelHigh
	}
	if t >= 15 && t <= 34 {
		return LevelMedium
	}
	return LevelLow
}

// Notes gives hive handling advice for a rounded temperature
func Notes(temperatureC *int) *string {
	if temperatureC == nil {
		return nil
	}
	var note string
	switch t := *temperatureC; {
	case t >= 18 && t <= 30:
		note = "Температурите са подходящи за активна работа на пчелите."
	case t < 10:
		note = "Студено време – ограничете отварянето на кошерите."
	default:
		note = "Следете влагата и осигурете проветрение на кошерите."
	}
	return &note
}

// Derive builds the forecast for region from conditions
func Derive(region string, c *Conditions) Forecast {
	temperature := roundPtr(c.Current.Temperature)
	precipitation := c.Precipitation()

	var nextRain *string
	if precipitation != nil {
		s := strconv.FormatFloat(*precipitation, 'f', -1, 64) + " мм през следващите 24 часа"
		nextRain = &s
	}

	return Forecast{
		Region:       region,
		TemperatureC: temperature,
		Wind:         WindDescription(c.Current.WindSpeed, c.Current.WindDirection),
		Humidity:     roundPtr(c.Current.Humidity),
		NectarLevel:  NectarLevel(c.Current.Temperature, c.Current.Humidity, precipitation),
		NextRain:     nextRain,
		Notes:        Notes(temperature),
	}
}
