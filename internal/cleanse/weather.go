package cleanse

// Weather returns the cleansing chain for the regional weather source. The
// feed carries its own header row, so the only repair is renaming the seven
// columns to their canonical snake-case names; types stay as inferred by the
// reader.
func Weather() Chain {
	return Chain{
		Stage: "weather",
		Rules: []Rule{
			rename{from: "County", to: "county"},
			rename{from: "State", to: "state"},
			rename{from: "Average Temperature", to: "climate_temp"},
			rename{from: "Latitude (generated)", to: "latitude_generated"},
			rename{from: "Longitude (generated)", to: "longitude_generated"},
			rename{from: "Year", to: "year"},
			rename{from: "Month", to: "month"},
		},
	}
}
