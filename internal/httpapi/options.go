package httpapi

import (
	"strconv"

	"github.com/manuelpepe/async-uci/internal/uci"
)

func toOptionDTOs(opts []uci.EngineOption) []optionDTO {
	out := make([]optionDTO, 0, len(opts))
	for _, opt := range opts {
		dto := optionDTO{Name: opt.Name}
		switch t := opt.Type.(type) {
		case uci.CheckOption:
			dto.Type = "check"
			dto.Default = strconv.FormatBool(t.Default)
		case uci.SpinOption:
			dto.Type = "spin"
			dto.Default = strconv.Itoa(t.Default)
			min, max := t.Min, t.Max
			dto.Min = &min
			dto.Max = &max
		case uci.ComboOption:
			dto.Type = "combo"
			dto.Default = t.Default
			dto.Vars = t.Vars
		case uci.ButtonOption:
			dto.Type = "button"
		case uci.StringOption:
			dto.Type = "string"
			dto.Default = t.Default
		default:
			dto.Type = "unknown"
		}
		out = append(out, dto)
	}
	return out
}
