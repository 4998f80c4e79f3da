package service

// UnansweredOption 未作答哨兵值，判分时恒为错误
const UnansweredOption = "__unanswered__"

// ScoreAnswer 精确值相等判分。不做大小写归一化，不做模糊匹配。
func ScoreAnswer(selected, correct string) bool {
	if selected == UnansweredOption {
		return false
	}
	return selected == correct
}
