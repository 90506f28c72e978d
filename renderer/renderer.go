package renderer

// Surface 在自有的绘图表面上执行一帧绘制指令，例如栅格画布或终端。
// 同一表面只由滚动渲染循环写入。
type Surface interface {
	Draw(frame *Frame) error
}

// Renderer 将一帧输出为最终文件，例如 PNG。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(frame *Frame) ([]byte, error)
}
