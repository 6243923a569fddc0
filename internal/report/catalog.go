package report

import "sort"

// 各分类默认的事件类型，工地未配置自定义类型时使用
var defaultIncidentTypes = map[Classification][]string{
	ClassOccurrence: {
		"Falta de material", "Problema com equipamento", "Problema elétrico", "Condição climática",
		"Falta de pessoal", "Problema de projeto", "Outros",
	},
	ClassStoppage: {
		"Chuva intensa", "Raios", "Vento forte", "Falta de material", "Falta de equipamento",
		"Manutenção", "Decisão gerencial", "Falta de frente de serviço", "Interferência externa", "Outros",
	},
	ClassInterference: {
		"Interferência de outra disciplina", "Interferência de terceiros", "Conflito de cronograma",
		"Interdição de área", "Outros",
	},
	ClassNearMiss: {
		"Queda de objeto", "Quase colisão veicular", "Exposição a produto químico",
		"Quase acidente elétrico", "Outros",
	},
	ClassAccident: {
		"Acidente com afastamento", "Acidente sem afastamento", "Primeiros socorros", "Dano material", "Outros",
	},
}

// IncidentTypes 返回分类可选的事件类型；custom 非空时优先使用
func IncidentTypes(c Classification, custom []string) ([]string, error) {
	if !c.Valid() {
		return nil, ErrInvalidClassification
	}
	if len(custom) > 0 {
		return append([]string(nil), custom...), nil
	}
	return append([]string(nil), defaultIncidentTypes[c]...), nil
}

// CatalogEntry 作业目录中的一行：专业 / 子专业 / 工序
type CatalogEntry struct {
	Discipline    string `json:"discipline"`
	SubDiscipline string `json:"sub_discipline"`
	Service       string `json:"service"`
}

// Disciplines 去重后的专业列表
func Disciplines(entries []CatalogEntry) []string {
	return distinct(entries, func(e CatalogEntry) (string, bool) {
		return e.Discipline, true
	})
}

// SubDisciplines 指定专业下的子专业
func SubDisciplines(entries []CatalogEntry, discipline string) []string {
	return distinct(entries, func(e CatalogEntry) (string, bool) {
		return e.SubDiscipline, e.Discipline == discipline
	})
}

// Services 指定专业与子专业下的工序
func Services(entries []CatalogEntry, discipline, subDiscipline string) []string {
	return distinct(entries, func(e CatalogEntry) (string, bool) {
		return e.Service, e.Discipline == discipline && e.SubDiscipline == subDiscipline
	})
}

func distinct(entries []CatalogEntry, pick func(CatalogEntry) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range entries {
		v, ok := pick(e)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
