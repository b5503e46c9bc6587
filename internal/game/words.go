package game

import "math/rand"

type Word struct {
	Word string
	Hint string
}

var corpus = []Word{
	{Word: "苹果", Hint: "常见水果，红绿皆有"},
	{Word: "长颈鹿", Hint: "动物，脖子很长"},
	{Word: "彩虹", Hint: "雨后天空出现的色带"},
	{Word: "吉他", Hint: "弦乐器，常用来弹唱"},
	{Word: "篮球", Hint: "圆形球类运动"},
	{Word: "宇航员", Hint: "在太空工作的人"},
	{Word: "火山", Hint: "会喷发的山体"},
	{Word: "鲸鱼", Hint: "海洋里的巨型哺乳动物"},
	{Word: "风筝", Hint: "风中飞的纸做玩具"},
	{Word: "雪人", Hint: "用雪堆出的形象"},
}

func randomWord() Word {
	return corpus[rand.Intn(len(corpus))]
}

// distractors samples n corpus words without replacement, excluding the
// secret word itself.
func distractors(exclude string, n int) []string {
	pool := make([]string, 0, len(corpus))
	for _, w := range corpus {
		if w.Word != exclude {
			pool = append(pool, w.Word)
		}
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}
