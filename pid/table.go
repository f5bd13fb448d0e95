package pid

import "fmt"

func word(data []byte) float64 {
	return float64(data[0])*256 + float64(data[1])
}

func percent(data []byte) any { return float64(data[0]) * 100 / 255 }

func temperature(data []byte) any { return float64(data[0]) - 40 }

func fuelTrim(data []byte) any { return (float64(data[0]) - 128) * 100 / 128 }

func raw(data []byte) any { return float64(data[0]) }

func counter(data []byte) any { return word(data) }

// supported decodes a "PIDs supported" bitmap into the PIDs it announces,
// offset by base.
func supported(base int) DecodeFunc {
	return func(data []byte) any {
		pids := []string{}
		for i, b := range data {
			for bit := 0; bit < 8; bit++ {
				if b&(0x80>>bit) != 0 {
					pids = append(pids, fmt.Sprintf("%02X", base+i*8+bit+1))
				}
			}
		}
		return pids
	}
}

// O2Sensor is a narrow band oxygen sensor reading.
type O2Sensor struct {
	Voltage        float64 `json:"voltage"`
	ShortTermTrim  float64 `json:"shortTermTrim"`
	TrimApplicable bool    `json:"trimApplicable"`
}

func o2Sensor(data []byte) any {
	return O2Sensor{
		Voltage:        float64(data[0]) / 200,
		ShortTermTrim:  (float64(data[1]) - 128) * 100 / 128,
		TrimApplicable: data[1] != 0xFF,
	}
}

// WideRangeO2 is a wide band oxygen sensor reading.
type WideRangeO2 struct {
	Ratio   float64 `json:"ratio"`
	Voltage float64 `json:"voltage"`
}

func wideRangeO2(data []byte) any {
	return WideRangeO2{
		Ratio:   word(data[0:2]) * 2 / 65536,
		Voltage: word(data[2:4]) * 8 / 65536,
	}
}

var fuelSystemStates = map[byte]string{
	0x01: "Open loop, insufficient engine temperature",
	0x02: "Closed loop, using oxygen sensor feedback",
	0x04: "Open loop, engine load or fuel cut",
	0x08: "Open loop, system failure",
	0x10: "Closed loop, feedback fault",
}

func fuelSystem(data []byte) any {
	states := make([]string, 0, 2)
	for _, b := range data {
		if s, ok := fuelSystemStates[b]; ok {
			states = append(states, s)
		} else {
			states = append(states, "Not present")
		}
	}
	return states
}

var obdStandards = map[byte]string{
	0x01: "OBD-II as defined by the CARB",
	0x02: "OBD as defined by the EPA",
	0x03: "OBD and OBD-II",
	0x04: "OBD-I",
	0x05: "Not OBD compliant",
	0x06: "EOBD (Europe)",
	0x07: "EOBD and OBD-II",
	0x08: "EOBD and OBD",
	0x09: "EOBD, OBD and OBD II",
	0x0A: "JOBD (Japan)",
	0x0B: "JOBD and OBD II",
	0x0C: "JOBD and EOBD",
	0x0D: "JOBD, EOBD, and OBD II",
}

func obdStandard(data []byte) any {
	if s, ok := obdStandards[data[0]]; ok {
		return s
	}
	return "Unknown"
}

var fuelTypes = []string{
	"Not available", "Gasoline", "Methanol", "Ethanol", "Diesel", "LPG", "CNG",
	"Propane", "Electric", "Bifuel running Gasoline", "Bifuel running Methanol",
	"Bifuel running Ethanol", "Bifuel running LPG", "Bifuel running CNG",
	"Bifuel running Propane", "Bifuel running Electricity",
	"Bifuel running electric and combustion engine", "Hybrid gasoline",
	"Hybrid Ethanol", "Hybrid Diesel", "Hybrid Electric",
	"Hybrid running electric and combustion engine", "Hybrid Regenerative",
	"Bifuel running diesel",
}

func fuelType(data []byte) any {
	if int(data[0]) < len(fuelTypes) {
		return fuelTypes[data[0]]
	}
	return "Unknown"
}

var defaultDescriptors = []Descriptor{
	{Mode: "01", PID: "00", Bytes: 4, Name: "pidsupp0", Description: "PIDs supported 00-20", Decode: supported(0x00)},
	{Mode: "01", PID: "01", Bytes: 4, Name: "dtc_cnt", Description: "Monitor status since DTCs cleared", Decode: decodeMILStatus},
	{Mode: "01", PID: "03", Bytes: 2, Name: "fuelsys", Description: "Fuel system 1 and 2 status", Decode: fuelSystem},
	{Mode: "01", PID: "04", Bytes: 1, Name: "load_pct", Description: "Calculated LOAD Value", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "05", Bytes: 1, Name: "temp", Description: "Engine Coolant Temperature", Min: -40, Max: 215, Unit: "Celsius", Decode: temperature},
	{Mode: "01", PID: "06", Bytes: 1, Name: "shrtft13", Description: "Short Term Fuel Trim - Bank 1,3", Min: -100, Max: 99.22, Unit: "%", Decode: fuelTrim},
	{Mode: "01", PID: "07", Bytes: 1, Name: "longft13", Description: "Long Term Fuel Trim - Bank 1,3", Min: -100, Max: 99.22, Unit: "%", Decode: fuelTrim},
	{Mode: "01", PID: "08", Bytes: 1, Name: "shrtft24", Description: "Short Term Fuel Trim - Bank 2,4", Min: -100, Max: 99.22, Unit: "%", Decode: fuelTrim},
	{Mode: "01", PID: "09", Bytes: 1, Name: "longft24", Description: "Long Term Fuel Trim - Bank 2,4", Min: -100, Max: 99.22, Unit: "%", Decode: fuelTrim},
	{Mode: "01", PID: "0A", Bytes: 1, Name: "frp", Description: "Fuel Rail Pressure (gauge)", Max: 765, Unit: "kPa", Decode: func(data []byte) any { return float64(data[0]) * 3 }},
	{Mode: "01", PID: "0B", Bytes: 1, Name: "map", Description: "Intake Manifold Absolute Pressure", Max: 255, Unit: "kPa", Decode: raw},
	{Mode: "01", PID: "0C", Bytes: 2, Name: "rpm", Description: "Engine RPM", Max: 16383.75, Unit: "rev/min", Decode: func(data []byte) any { return word(data) / 4 }},
	{Mode: "01", PID: "0D", Bytes: 1, Name: "vss", Description: "Vehicle Speed Sensor", Max: 255, Unit: "km/h", Decode: raw},
	{Mode: "01", PID: "0E", Bytes: 1, Name: "sparkadv", Description: "Ignition Timing Advance for #1 Cylinder", Min: -64, Max: 63.5, Unit: "deg relative to #1 cylinder", Decode: func(data []byte) any { return float64(data[0])/2 - 64 }},
	{Mode: "01", PID: "0F", Bytes: 1, Name: "iat", Description: "Intake Air Temperature", Min: -40, Max: 215, Unit: "Celsius", Decode: temperature},
	{Mode: "01", PID: "10", Bytes: 2, Name: "maf", Description: "Air Flow Rate from Mass Air Flow Sensor", Max: 655.35, Unit: "g/s", Decode: func(data []byte) any { return word(data) / 100 }},
	{Mode: "01", PID: "11", Bytes: 1, Name: "throttlepos", Description: "Absolute Throttle Position", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "13", Bytes: 1, Name: "o2sloc", Description: "Location of Oxygen Sensors", Decode: raw},
	{Mode: "01", PID: "14", Bytes: 2, Name: "o2s11", Description: "Bank 1 - Sensor 1 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "15", Bytes: 2, Name: "o2s12", Description: "Bank 1 - Sensor 2 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "16", Bytes: 2, Name: "o2s13", Description: "Bank 1 - Sensor 3 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "17", Bytes: 2, Name: "o2s14", Description: "Bank 1 - Sensor 4 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "18", Bytes: 2, Name: "o2s21", Description: "Bank 2 - Sensor 1 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "19", Bytes: 2, Name: "o2s22", Description: "Bank 2 - Sensor 2 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "1A", Bytes: 2, Name: "o2s23", Description: "Bank 2 - Sensor 3 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "1B", Bytes: 2, Name: "o2s24", Description: "Bank 2 - Sensor 4 voltage and trim", Max: 1.275, Unit: "V", Decode: o2Sensor},
	{Mode: "01", PID: "1C", Bytes: 1, Name: "obdsup", Description: "OBD requirements to which vehicle is designed", Decode: obdStandard},
	{Mode: "01", PID: "1F", Bytes: 2, Name: "runtm", Description: "Time Since Engine Start", Max: 65535, Unit: "seconds", Decode: counter},
	{Mode: "01", PID: "20", Bytes: 4, Name: "pidsupp2", Description: "PIDs supported 21-40", Decode: supported(0x20)},
	{Mode: "01", PID: "21", Bytes: 2, Name: "mil_dist", Description: "Distance Travelled While MIL is Activated", Max: 65535, Unit: "km", Decode: counter},
	{Mode: "01", PID: "22", Bytes: 2, Name: "frpm", Description: "Fuel Rail Pressure relative to manifold vacuum", Max: 5177.265, Unit: "kPa", Decode: func(data []byte) any { return word(data) * 0.079 }},
	{Mode: "01", PID: "23", Bytes: 2, Name: "frpd", Description: "Fuel Rail Pressure (diesel)", Max: 655350, Unit: "kPa", Decode: func(data []byte) any { return word(data) * 10 }},
	{Mode: "01", PID: "24", Bytes: 4, Name: "lambda11", Description: "Bank 1 - Sensor 1 equivalence ratio and voltage", Max: 2, Decode: wideRangeO2},
	{Mode: "01", PID: "2C", Bytes: 1, Name: "egr_pct", Description: "Commanded EGR", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "2D", Bytes: 1, Name: "egr_err", Description: "EGR Error", Min: -100, Max: 99.22, Unit: "%", Decode: fuelTrim},
	{Mode: "01", PID: "2E", Bytes: 1, Name: "evap_pct", Description: "Commanded Evaporative Purge", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "2F", Bytes: 1, Name: "fli", Description: "Fuel Level Input", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "30", Bytes: 1, Name: "warm_ups", Description: "Number of warm-ups since diagnostic trouble codes cleared", Max: 255, Decode: raw},
	{Mode: "01", PID: "31", Bytes: 2, Name: "clr_dist", Description: "Distance since diagnostic trouble codes cleared", Max: 65535, Unit: "km", Decode: counter},
	{Mode: "01", PID: "33", Bytes: 1, Name: "baro", Description: "Barometric Pressure", Max: 255, Unit: "kPa", Decode: raw},
	{Mode: "01", PID: "3C", Bytes: 2, Name: "catemp11", Description: "Catalyst Temperature Bank 1, Sensor 1", Min: -40, Max: 6513.5, Unit: "Celsius", Decode: func(data []byte) any { return word(data)/10 - 40 }},
	{Mode: "01", PID: "40", Bytes: 4, Name: "pidsupp4", Description: "PIDs supported 41-60", Decode: supported(0x40)},
	{Mode: "01", PID: "42", Bytes: 2, Name: "vpwr", Description: "Control module voltage", Max: 65.535, Unit: "V", Decode: func(data []byte) any { return word(data) / 1000 }},
	{Mode: "01", PID: "43", Bytes: 2, Name: "load_abs", Description: "Absolute Load Value", Max: 25700, Unit: "%", Decode: func(data []byte) any { return word(data) * 100 / 255 }},
	{Mode: "01", PID: "44", Bytes: 2, Name: "lambda", Description: "Fuel/air commanded equivalence ratio", Max: 2, Decode: func(data []byte) any { return word(data) * 2 / 65536 }},
	{Mode: "01", PID: "45", Bytes: 1, Name: "tp_r", Description: "Relative Throttle Position", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "46", Bytes: 1, Name: "aat", Description: "Ambient air temperature", Min: -40, Max: 215, Unit: "Celsius", Decode: temperature},
	{Mode: "01", PID: "49", Bytes: 1, Name: "app_d", Description: "Accelerator pedal position D", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "4D", Bytes: 2, Name: "mil_time", Description: "Time run by the engine while MIL activated", Max: 65535, Unit: "minutes", Decode: counter},
	{Mode: "01", PID: "4E", Bytes: 2, Name: "clr_time", Description: "Time since diagnostic trouble codes cleared", Max: 65535, Unit: "minutes", Decode: counter},
	{Mode: "01", PID: "51", Bytes: 1, Name: "fuel_type", Description: "Type of fuel currently being utilized by the vehicle", Decode: fuelType},
	{Mode: "01", PID: "52", Bytes: 1, Name: "alch_pct", Description: "Ethanol fuel %", Max: 100, Unit: "%", Decode: percent},
	{Mode: "01", PID: "5C", Bytes: 1, Name: "eot", Description: "Engine oil temperature", Min: -40, Max: 210, Unit: "Celsius", Decode: temperature},
	{Mode: "01", PID: "5E", Bytes: 2, Name: "fuel_rate", Description: "Engine fuel rate", Max: 3276.75, Unit: "L/h", Decode: func(data []byte) any { return word(data) / 20 }},
	{Mode: "03", Bytes: 6, Name: "requestdtc", Description: "Requested DTC", Decode: DecodeDTCs},
	{Mode: "04", Name: "clear_dtc", Description: "Clear Trouble Codes (Clear engine light)"},
}

var defaultTable = mustTable(defaultDescriptors...)

func mustTable(descriptors ...Descriptor) *Table {
	t, err := NewTable(descriptors...)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the standard OBD-II table shared by all sessions.
func Default() *Table {
	return defaultTable
}
