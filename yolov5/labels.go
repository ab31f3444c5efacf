package yolov5

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadLabel 读取标签文件，每行一个标签，行号(从0开始)即类别ID
func ReadLabel(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取标签文件失败: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取标签文件失败: %w", err)
	}
	return labels, nil
}
