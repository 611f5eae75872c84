package models

import "github.com/google/uuid"

// EndingStat - одна концовка в распределении. Концовки без завершенных
// сессий тоже присутствуют, с нулевым счетчиком.
type EndingStat struct {
	PageID      uuid.UUID `json:"pageId"`
	EndingLabel string    `json:"endingLabel"`
	EndingType  string    `json:"endingType"`
	Count       int       `json:"count"`
	// Percentage округляется до 2 знаков; сумма по всем концовкам
	// истории с хотя бы одной сессией дает 100 с точностью округления.
	Percentage float64 `json:"percentage"`
}

// EndingDistribution - распределение завершенных сессий по концовкам.
type EndingDistribution struct {
	StoryID        uuid.UUID    `json:"storyId"`
	TotalCompleted int          `json:"totalCompleted"`
	Endings        []EndingStat `json:"endings"`
}

// PathFrequency - одна точная последовательность страниц с частотой.
type PathFrequency struct {
	PageIDs    []uuid.UUID `json:"pageIds"`
	Count      int         `json:"count"`
	Percentage float64     `json:"percentage"`
}

// PathFrequencyReport - топ-10 самых частых последовательностей.
type PathFrequencyReport struct {
	StoryID        uuid.UUID       `json:"storyId"`
	TotalCompleted int             `json:"totalCompleted"`
	Paths          []PathFrequency `json:"paths"`
}

// PathSimilarityReport - средняя похожесть пути сессии на пути остальных
// завершенных сессий истории, [0, 100]. Когда других сессий нет - 100.
type PathSimilarityReport struct {
	GameID   uuid.UUID `json:"gameId"`
	StoryID  uuid.UUID `json:"storyId"`
	Score    int       `json:"score"`
	Compared int       `json:"compared"`
}
