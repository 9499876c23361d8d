package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/schollz/progressbar/v3"
)

// ANSI颜色代码
const (
	Reset           = "\033[0m"
	Red             = "\033[31m"
	Green           = "\033[32m"
	Yellow          = "\033[33m"
	Blue            = "\033[34m"
	Magenta         = "\033[35m"
	Cyan            = "\033[36m"
	White           = "\033[37m"
	Bold            = "\033[1m"
	BackgroundReset = "\033[49m"
)

// 进度条更新时间间隔（毫秒）
const ProgressBarUpdateInterval = 100

// 全局变量跟踪进度条最后更新时间
var lastProgressBarUpdate time.Time

// stdin 所有交互输入共用一个缓冲读取器
var stdin = bufio.NewReader(os.Stdin)

// RGBColor 表示RGB颜色
type RGBColor struct {
	R, G, B uint8
}

func (c RGBColor) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// RGBToANSIColor 将RGB颜色转换为ANSI颜色代码
func RGBToANSIColor(r, g, b uint8) string {
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b)
}

// RGBToANSIBackground 将RGB颜色转换为ANSI背景色代码
func RGBToANSIBackground(r, g, b uint8) string {
	return fmt.Sprintf("\033[48;2;%d;%d;%dm", r, g, b)
}

// ColoredPrint 使用指定颜色输出文本
func ColoredPrint(colorCode, text string, useColor bool) string {
	if useColor {
		return fmt.Sprintf("%s%s%s", colorCode, text, Reset)
	}
	return text
}

// ColoredPrintf 使用颜色格式化输出
func ColoredPrintf(colorCode, format string, useColor bool, a ...interface{}) string {
	if useColor {
		return fmt.Sprintf("%s%s%s", colorCode, fmt.Sprintf(format, a...), Reset)
	}
	return fmt.Sprintf(format, a...)
}

// GenerateGradientColors 在 Lab 空间中生成从start到end的渐变颜色序列
func GenerateGradientColors(start, end RGBColor, steps int) []RGBColor {
	if steps <= 0 {
		return []RGBColor{}
	}
	if steps == 1 {
		return []RGBColor{start}
	}

	a, b := start.colorful(), end.colorful()
	colors := make([]RGBColor, steps)
	for i := 0; i < steps; i++ {
		r, g, bl := a.BlendLab(b, float64(i)/float64(steps-1)).Clamped().RGB255()
		colors[i] = RGBColor{R: r, G: g, B: bl}
	}
	return colors
}

// GenerateRainbowColors 生成彩虹渐变色
func GenerateRainbowColors(steps int) []RGBColor {
	colors := make([]RGBColor, 0, max(steps, 0))
	for i := 0; i < steps; i++ {
		r, g, b := colorful.Hsl(360*float64(i)/float64(steps), 1, 0.5).Clamped().RGB255()
		colors = append(colors, RGBColor{R: r, G: g, B: b})
	}
	return colors
}

// PrintColoredTextBlock 使用彩色背景打印文本块
func PrintColoredTextBlock(text string, bgColor RGBColor, useColor bool) {
	if useColor {
		bgCode := RGBToANSIBackground(bgColor.R, bgColor.G, bgColor.B)
		fmt.Printf("%s%s%s", bgCode, text, BackgroundReset)
	} else {
		fmt.Print(text)
	}
}

func printPerRune(text string, colors []RGBColor) {
	i := 0
	for _, char := range text {
		c := colors[i]
		fmt.Printf("%s%c%s", RGBToANSIColor(c.R, c.G, c.B), char, Reset)
		i++
	}
}

// PrintGradientText 打印渐变色文本
func PrintGradientText(text string, startColor, endColor RGBColor, useColor bool) {
	n := len([]rune(text))
	if !useColor || n == 0 {
		fmt.Print(text)
		return
	}
	printPerRune(text, GenerateGradientColors(startColor, endColor, n))
}

// PrintRainbowText 打印彩虹色文本
func PrintRainbowText(text string, useColor bool) {
	n := len([]rune(text))
	if !useColor || n == 0 {
		fmt.Print(text)
		return
	}
	printPerRune(text, GenerateRainbowColors(n))
}

// ReadLine 读取一行输入
func ReadLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// GetUserInput 获取用户输入，带有默认值
func GetUserInput(prompt string, defaultValue string, useColor bool) string {
	if useColor {
		startColor := RGBColor{R: 135, G: 206, B: 250} // Light Sky Blue
		endColor := RGBColor{R: 70, G: 130, B: 180}    // Steel Blue
		PrintGradientText(prompt, startColor, endColor, useColor)
	} else {
		fmt.Print(prompt)
	}

	if defaultValue != "" {
		defaultText := fmt.Sprintf(" (默认: %s)", defaultValue)
		PrintColoredTextBlock(defaultText, RGBColor{R: 128, G: 128, B: 128}, useColor)
	}
	fmt.Print(": ")

	input := ReadLine(stdin)
	if input == "" && defaultValue != "" {
		return defaultValue
	}
	return input
}

func printInvalid(msg string, useColor bool) {
	if useColor {
		PrintColoredTextBlock(msg+"\n", RGBColor{R: 255, G: 0, B: 0}, useColor)
	} else {
		fmt.Println(msg)
	}
}

// GetUserInputInt 获取用户输入的正整数，带有默认值
func GetUserInputInt(prompt string, defaultValue int, useColor bool) int {
	for {
		inputStr := GetUserInput(prompt, strconv.Itoa(defaultValue), useColor)
		value, err := strconv.Atoi(inputStr)
		if err != nil || value <= 0 {
			printInvalid("输入无效，请输入一个正整数", useColor)
			continue
		}
		return value
	}
}

// GetUserInputBool 获取用户输入的布尔值
func GetUserInputBool(prompt string, defaultValue bool, useColor bool) bool {
	defaultStr := "n"
	if defaultValue {
		defaultStr = "y"
	}

	for {
		input := strings.ToLower(GetUserInput(prompt, defaultStr, useColor))
		switch input {
		case "y", "yes", "是", "1", "true", "t":
			return true
		case "n", "no", "否", "0", "false", "f":
			return false
		case "":
			return defaultValue
		default:
			printInvalid("输入无效，请输入 y(是) 或 n(否)", useColor)
		}
	}
}

// PrintSectionTitle 打印带渐变色的章节标题
func PrintSectionTitle(title string, useColor bool) {
	const rule = "════════════════════════════════════════"
	if !useColor {
		fmt.Printf("\n%s\n%s\n%s\n\n", rule, title, rule)
		return
	}
	startColor := RGBColor{R: 50, G: 205, B: 50} // LimeGreen
	endColor := RGBColor{R: 34, G: 139, B: 34}   // ForestGreen
	fmt.Println()
	for _, line := range []string{rule, title, rule} {
		PrintGradientText(line, startColor, endColor, useColor)
		fmt.Println()
	}
}

// PrintChoiceOption 打印选择选项
func PrintChoiceOption(index int, option string, useColor bool) {
	fmt.Println(ColoredPrintf(Cyan, "%d. %s", useColor, index, option))
}

// GetUserChoice 让用户从多个选项中选择一个，返回下标
func GetUserChoice(prompt string, options []string, defaultValue int, useColor bool) int {
	fmt.Print(ColoredPrint(Yellow, prompt, useColor))
	if defaultValue >= 0 && defaultValue < len(options) {
		fmt.Printf(" (默认: %d - %s)", defaultValue+1, options[defaultValue])
	}
	fmt.Println(":")

	for i, option := range options {
		PrintChoiceOption(i+1, option, useColor)
	}

	for {
		input := GetUserInput("请输入选项编号", "", useColor)
		if input == "" && defaultValue >= 0 && defaultValue < len(options) {
			return defaultValue
		}

		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(options) {
			printInvalid("输入无效，请输入一个有效的选项编号", useColor)
			continue
		}
		return choice - 1
	}
}

// NewProgressBar 创建区域进度条
func NewProgressBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(ProgressBarUpdateInterval*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

// DisplayProgressBar 显示进度条（不使用 progressbar 时的简易输出）
func DisplayProgressBar(current, total int, message string, useColor bool) {
	if total <= 0 {
		return
	}

	// 限制更新频率，完成时总是显示
	now := time.Now()
	if current < total && now.Sub(lastProgressBarUpdate) < ProgressBarUpdateInterval*time.Millisecond {
		return
	}
	lastProgressBarUpdate = now

	percentage := float64(current) / float64(total) * 100
	barLength := 50
	filledLength := barLength * current / total

	var bar string
	if useColor {
		bar = fmt.Sprintf("%s[%s%s%s]%s",
			Cyan,
			Green+strings.Repeat("█", filledLength),
			Yellow+strings.Repeat("░", barLength-filledLength),
			Cyan,
			Reset)
	} else {
		bar = fmt.Sprintf("[%s%s]",
			strings.Repeat("█", filledLength),
			strings.Repeat("░", barLength-filledLength))
	}

	// 清除当前行并显示进度条
	fmt.Printf("\r%s %s %.1f%% (%d/%d)", bar, message, percentage, current, total)
	if current >= total {
		fmt.Println()
	}
}
